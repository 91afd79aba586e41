package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

// Queue names.
const (
	CallDispatchQueue = "call_dispatch"
)

// CallDispatchJob is the payload carried on the call_dispatch queue.
type CallDispatchJob struct {
	CallID int `json:"call_id"`
	RunID  int `json:"run_id"`
}

// Publisher is the interface services queue jobs through.
type Publisher interface {
	Publish(queueName string, payload any) error
}

// AMQPQueue wraps a RabbitMQ connection with durable queue declarations.
type AMQPQueue struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	log.Info().Msg("✅ Connected to RabbitMQ")
	return &AMQPQueue{conn: conn, ch: ch}, nil
}

func (q *AMQPQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *AMQPQueue) declare(queueName string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *AMQPQueue) Publish(queueName string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue, err := q.declare(queueName)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return q.ch.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume delivers queue messages to handler with manual acks. A handler
// error requeues the message up to maxRetries times via x-retry-count,
// after which the message is dropped with an ack.
func (q *AMQPQueue) Consume(queueName string, maxRetries int, handler func(body []byte) error) error {
	queue, err := q.declare(queueName)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	msgs, err := q.ch.Consume(
		queue.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for d := range msgs {
		if err := handler(d.Body); err != nil {
			retryCount := retryCountFrom(d.Headers)
			if retryCount < maxRetries {
				log.Warn().Err(err).Int("retry", retryCount+1).Msg("⚠️ Job failed, requeueing")
				d.Headers = amqp.Table{"x-retry-count": int32(retryCount + 1)}
				d.Nack(false, true)
				continue
			}
			log.Error().Err(err).Int("retries", maxRetries).Msg("Job permanently failed")
		}
		d.Ack(false)
	}
	return nil
}

func retryCountFrom(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
