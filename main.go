package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"receptionist/config"
	"receptionist/cron"
	"receptionist/database"
	recordsRepo "receptionist/database/repository/records"
	"receptionist/handlers"
	"receptionist/routes"
	"receptionist/services/booking"
	"receptionist/services/calendar"
	"receptionist/services/conversation"
	ai "receptionist/services/intelligence"
	"receptionist/services/session"
	"receptionist/services/speech"
	"receptionist/services/tasks"
	"receptionist/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()
	shop := config.Shop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	features := handlers.Features{}

	// Session store: Redis, or process memory when Redis is unavailable.
	var sessions session.Store
	if !cfg.UseMemoryStore {
		if err := utils.InitSessionCache(); err != nil {
			logger.Warn("main: Redis unavailable, falling back to in-memory sessions", zap.Error(err))
		}
	}
	if client := utils.GetSessionClient(); client != nil {
		sessions = session.NewRedisStore(client, cfg.SessionTTL(), cfg.EndedSessionTTL(), logger)
		features.SessionStore = "redis"
	} else {
		mem := session.NewMemoryStore(cfg.SessionTTL(), cfg.EndedSessionTTL(), logger)
		mem.StartSweeper(ctx, time.Minute)
		sessions = mem
		features.SessionStore = "memory"
	}

	// Intent classification: Gemini, or the local keyword model.
	var model ai.TextModel
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("main: failed to initialize Gemini, using keyword model", zap.Error(err))
		} else {
			defer gemini.Close()
			model = gemini
			features.Classifier = "gemini"
		}
	}
	if model == nil {
		model = ai.NewKeywordModel(shop)
		features.Classifier = "keyword"
	}
	classifier := ai.NewIntentAdapter(model, shop, logger,
		ai.WithAdapterTimeout(time.Duration(cfg.ClassifierTimeoutSecs)*time.Second))

	// Calendar: Google Calendar, or an in-memory calendar for local runs.
	creds := calendar.GoogleCredentials{Path: cfg.GoogleCredentialsPath, JSON: cfg.GoogleCredentialsJSON}
	var cal calendar.Backend
	if creds.Path != "" || creds.JSON != "" {
		gcal, err := calendar.NewGoogleCalendar(ctx, creds, cfg.GoogleCalendarID, shop.Loc(), logger)
		if err != nil {
			logger.Error("main: failed to initialize Google Calendar", zap.Error(err))
		} else {
			cal = gcal
			features.Calendar = "google"
		}
	}
	if cal == nil {
		logger.Warn("main: Google Calendar not configured; bookings are kept in memory")
		cal = calendar.NewMemoryCalendar()
		features.Calendar = "memory"
	}
	engine := booking.NewEngine(cal, shop, logger,
		booking.WithTimeout(time.Duration(cfg.CalendarTimeoutSecs)*time.Second))

	// Recording transcription for low-confidence speech.
	var stt handlers.RecordingTranscriber
	if creds.Path != "" || creds.JSON != "" {
		transcriber, err := speech.NewTranscriber(ctx, speech.TranscriberConfig{
			CredentialsPath: creds.Path,
			CredentialsJSON: creds.JSON,
			AccountSID:      cfg.TwilioAccountSID,
			AuthToken:       cfg.TwilioAuthToken,
			LanguageCode:    cfg.SpeechLanguage,
		}, logger)
		if err != nil {
			logger.Error("main: failed to initialize speech-to-text", zap.Error(err))
		} else {
			defer transcriber.Close()
			stt = transcriber
			features.SpeechToText = true
		}
	}

	// Call archive: MongoDB records written by an asynq worker.
	var records recordsRepo.CallRecordRepository
	if cfg.DatabaseURL != "" {
		mongoClient, err := database.InitDB(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("main: call archive unavailable", zap.Error(err))
		} else {
			db := mongoClient.Database(cfg.DatabaseName)
			if err := recordsRepo.EnsureIndexes(ctx, db); err != nil {
				logger.Warn("main: failed to create call record indexes", zap.Error(err))
			}
			records = recordsRepo.NewMongoCallRecordRepo(db)
		}
	}

	var agentOpts []conversation.Option
	var archiveServer *asynq.Server
	if records != nil && utils.GetSessionClient() != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
		queue := asynq.NewClient(redisOpts)
		defer queue.Close()
		agentOpts = append(agentOpts, conversation.WithArchiver(tasks.NewArchiveQueue(queue, logger)))
		archiveServer = cron.StartArchiveWorker(ctx, redisOpts, cron.NewArchiveWorker(sessions, records, logger), logger)
		features.CallArchive = true
	} else {
		logger.Warn("main: call archive disabled; it needs DATABASE_URL and Redis")
	}

	agent := conversation.NewAgent(classifier, engine, sessions, shop, logger, agentOpts...)

	utils.StartHealthMonitor(ctx, utils.GetSessionClient(), database.MongoClient)

	var adminHandler *handlers.AdminHandler
	if cfg.AdminPasswordHash != "" {
		adminHandler = handlers.NewAdminHandler(engine, records, agent, handlers.AdminCredentials{
			Username:     cfg.AdminUsername,
			PasswordHash: cfg.AdminPasswordHash,
			Secret:       []byte(cfg.JWTSecret),
		}, logger)
	}

	handlerBundle := &handlers.HandlerBundle{
		Voice:           handlers.NewVoiceHandler(agent, stt, cfg.SpeechLanguage, logger),
		Demo:            handlers.NewDemoHandler(agent, shop.Name, logger),
		Admin:           adminHandler,
		Health:          handlers.NewHealthHandler(shop.Name, features),
		TwilioAuthToken: cfg.TwilioAuthToken,
		PublicBaseURL:   cfg.PublicBaseURL,
		JWTSecret:       []byte(cfg.JWTSecret),
		RequestsPerMin:  cfg.MaxRequestsPerMin,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, handlerBundle, logger)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Info("main: starting server",
		zap.String("addr", srv.Addr),
		zap.String("shop", shop.Name),
		zap.Any("features", features))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if archiveServer != nil {
		archiveServer.Shutdown()
	}
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("main: failed to disconnect MongoDB", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}
