// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/carewave/callcare-backend/internal/config"
	"github.com/carewave/callcare-backend/internal/db"
	"github.com/carewave/callcare-backend/internal/queue"
	"github.com/carewave/callcare-backend/internal/realtime"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/service"
	"github.com/carewave/callcare-backend/internal/voice"
)

const maxDispatchRetries = 3

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	var publisher realtime.Publisher = realtime.NewRedisPublisher(rdb)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis unreachable, realtime events disabled")
		publisher = realtime.NoopPublisher{}
	}

	q, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("queue connection failed")
	}
	defer q.Close()

	voiceClient := voice.NewClient(voice.ClientConfig{
		BaseURL:           cfg.VoiceAPIBaseURL,
		APIKey:            cfg.VoiceAPIKey,
		Timeout:           30 * time.Second,
		MaxRetries:        cfg.VoiceAPIMaxRetries,
		RequestsPerSecond: float64(cfg.VoiceAPIRPS),
	})

	runRepo := &repository.RunRepository{DB: conn}
	callRepo := &repository.CallRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	patientRepo := &repository.PatientRepository{DB: conn}

	runService := &service.RunService{
		RunRepo:      runRepo,
		CallRepo:     callRepo,
		CampaignRepo: campaignRepo,
		PatientRepo:  patientRepo,
		Queue:        q,
		Realtime:     publisher,
	}
	callService := &service.CallService{
		CallRepo:     callRepo,
		CampaignRepo: campaignRepo,
		PatientRepo:  patientRepo,
		Voice:        voiceClient,
		Realtime:     publisher,
		Runs:         runService,
	}

	log.Info().Str("queue", queue.CallDispatchQueue).Msg("👷 Worker waiting for dispatch jobs")

	err = q.Consume(queue.CallDispatchQueue, maxDispatchRetries, func(body []byte) error {
		var job queue.CallDispatchJob
		if err := json.Unmarshal(body, &job); err != nil {
			log.Error().Err(err).Msg("bad dispatch payload, dropping")
			return nil
		}
		return callService.DispatchCall(context.Background(), job)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("consumer exited")
	}
}
