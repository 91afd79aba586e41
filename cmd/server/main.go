// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/carewave/callcare-backend/internal/auth"
	"github.com/carewave/callcare-backend/internal/config"
	"github.com/carewave/callcare-backend/internal/controller"
	"github.com/carewave/callcare-backend/internal/db"
	"github.com/carewave/callcare-backend/internal/handler"
	"github.com/carewave/callcare-backend/internal/metrics"
	"github.com/carewave/callcare-backend/internal/queue"
	"github.com/carewave/callcare-backend/internal/realtime"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/service"
	"github.com/carewave/callcare-backend/internal/voice"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	// Init DB
	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()

	if err := db.Migrate(conn, cfg); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Queue
	q, err := queue.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("queue connection failed")
	}
	defer q.Close()

	// Redis + realtime hub
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	var publisher realtime.Publisher = realtime.NewRedisPublisher(rdb)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis unreachable, realtime events disabled")
		publisher = realtime.NoopPublisher{}
	}

	// Voice provider client
	voiceClient := voice.NewClient(voice.ClientConfig{
		BaseURL:           cfg.VoiceAPIBaseURL,
		APIKey:            cfg.VoiceAPIKey,
		Timeout:           30 * time.Second,
		MaxRetries:        cfg.VoiceAPIMaxRetries,
		RequestsPerSecond: float64(cfg.VoiceAPIRPS),
	})

	// Repositories
	orgRepo := &repository.OrganizationRepository{DB: conn}
	userRepo := &repository.UserRepository{DB: conn}
	patientRepo := &repository.PatientRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	runRepo := &repository.RunRepository{DB: conn}
	callRepo := &repository.CallRepository{DB: conn}
	analyticsRepo := &repository.AnalyticsRepository{DB: conn}
	requestRepo := &repository.CampaignRequestRepository{DB: conn}
	eventRepo := &repository.WebhookEventRepository{DB: conn}

	// Services
	orgService := &service.OrganizationService{OrgRepo: orgRepo, UserRepo: userRepo}
	patientService := &service.PatientService{PatientRepo: patientRepo}
	templateService := &service.TemplateService{TemplateRepo: templateRepo, Voice: voiceClient}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		TemplateRepo: templateRepo,
		PatientRepo:  patientRepo,
		RequestRepo:  requestRepo,
		Voice:        voiceClient,
	}
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
	analyticsService := &service.AnalyticsService{AnalyticsRepo: analyticsRepo}

	// Controllers
	campaignController := &controller.CampaignController{CampaignService: campaignService}
	templateController := &controller.TemplateController{TemplateService: templateService}
	patientController := &controller.PatientController{PatientService: patientService}
	runController := &controller.RunController{RunService: runService}
	callController := &controller.CallController{CallService: callService}
	analyticsController := &controller.AnalyticsController{AnalyticsService: analyticsService}
	orgController := &controller.OrganizationController{OrgService: orgService}

	// Webhook + realtime handlers
	voiceWebhook := &handler.VoiceWebhookHandler{
		OrgRepo:     orgRepo,
		CallRepo:    callRepo,
		EventRepo:   eventRepo,
		CallService: callService,
	}
	identityWebhook := &handler.IdentityWebhookHandler{
		Secret:     cfg.IdentityWebhookSecret,
		OrgService: orgService,
	}

	hub := realtime.NewHub(rdb, handler.NewChannelAuthorizer(runRepo, campaignRepo))
	go hub.Run(context.Background())
	wsHandler := &handler.WSHandler{Hub: hub}

	authMiddleware := auth.NewMiddleware(cfg.SessionSecret, userRepo)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.RequestMetrics)

	r.Handle("/metrics", metrics.Handler())

	// Webhook receivers (provider-authenticated, no session)
	r.Post("/webhooks/voice/{orgID}", voiceWebhook.HandleCallEvent)
	r.Post("/webhooks/identity", identityWebhook.HandleEvent)

	// Dashboard API (session-authenticated)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireSession)

		r.Get("/ws", wsHandler.ServeWS)

		r.Get("/organization", orgController.GetOrganization)
		r.Put("/organization/settings", orgController.UpdateSettings)
		r.Get("/organization/members", orgController.ListMembers)

		r.Post("/campaigns", campaignController.CreateCampaign)
		r.Get("/campaigns", campaignController.ListCampaigns)
		r.Get("/campaigns/{id}", campaignController.GetCampaign)
		r.Patch("/campaigns/{id}", campaignController.UpdateCampaign)
		r.Post("/campaigns/{id}/status", campaignController.TransitionStatus)
		r.Post("/campaigns/{id}/personalized-preview", campaignController.PersonalizedPreview)

		r.Post("/campaign-requests", campaignController.CreateCampaignRequest)
		r.Get("/campaign-requests", campaignController.ListCampaignRequests)
		r.Post("/campaign-requests/{id}/review", campaignController.ReviewCampaignRequest)

		r.Post("/templates", templateController.CreateTemplate)
		r.Get("/templates", templateController.ListTemplates)
		r.Get("/templates/{id}", templateController.GetTemplate)
		r.Patch("/templates/{id}", templateController.UpdateTemplate)
		r.Delete("/templates/{id}", templateController.DeleteTemplate)
		r.Post("/templates/generate", templateController.GenerateTemplate)

		r.Post("/patients/upload", patientController.UploadPatients)
		r.Get("/patients", patientController.ListPatients)
		r.Get("/patients/{id}", patientController.GetPatient)
		r.Patch("/patients/{id}", patientController.UpdatePatient)
		r.Delete("/patients/{id}", patientController.DeletePatient)

		r.Post("/runs", runController.CreateRun)
		r.Get("/runs", runController.ListRuns)
		r.Get("/runs/{id}", runController.GetRun)
		r.Post("/runs/{id}/start", runController.StartRun)
		r.Post("/runs/{id}/cancel", runController.CancelRun)

		r.Get("/calls", callController.ListCalls)
		r.Get("/calls/{id}", callController.GetCall)

		r.Get("/analytics/dashboard", analyticsController.GetDashboard)
	})

	log.Info().Str("port", cfg.Port).Msg("🚀 Server running")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
