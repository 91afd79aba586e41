// cmd/scheduler/main.go
package main

import (
	"context"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/carewave/callcare-backend/internal/config"
	"github.com/carewave/callcare-backend/internal/db"
	"github.com/carewave/callcare-backend/internal/queue"
	"github.com/carewave/callcare-backend/internal/realtime"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()

	q, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("queue connection failed")
	}
	defer q.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	var publisher realtime.Publisher = realtime.NewRedisPublisher(rdb)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis unreachable, realtime events disabled")
		publisher = realtime.NoopPublisher{}
	}

	runService := &service.RunService{
		RunRepo:      &repository.RunRepository{DB: conn},
		CallRepo:     &repository.CallRepository{DB: conn},
		CampaignRepo: &repository.CampaignRepository{DB: conn},
		PatientRepo:  &repository.PatientRepository{DB: conn},
		Queue:        q,
		Realtime:     publisher,
	}

	c := cron.New()
	_, err = c.AddFunc("* * * * *", func() {
		dispatched, err := runService.DispatchDue(context.Background(), time.Now().UTC())
		if err != nil {
			log.Error().Err(err).Msg("scheduler tick failed")
			return
		}
		if dispatched > 0 {
			log.Info().Int("runs", dispatched).Msg("⏰ dispatched due runs")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("cron registration failed")
	}

	log.Info().Msg("⏰ Scheduler running")
	c.Run()
}
