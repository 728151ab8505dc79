package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"genai-studio/chat-api/internal/config"
	"genai-studio/chat-api/internal/domain/chat"
	"genai-studio/chat-api/internal/domain/conversation"
	"genai-studio/chat-api/internal/infrastructure/crontab"
	"genai-studio/chat-api/internal/infrastructure/database"
	"genai-studio/chat-api/internal/infrastructure/database/repository/conversationrepo"
	"genai-studio/chat-api/internal/infrastructure/database/transaction"
	"genai-studio/chat-api/internal/infrastructure/extractor"
	"genai-studio/chat-api/internal/infrastructure/logger"
	"genai-studio/chat-api/internal/interfaces/httpserver"
	"genai-studio/chat-api/internal/interfaces/httpserver/handlers/chathandler"
	"genai-studio/chat-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"genai-studio/chat-api/internal/interfaces/httpserver/handlers/systemhandler"
	"genai-studio/chat-api/internal/interfaces/httpserver/routes"
	"genai-studio/chat-api/internal/utils/httpclients"
	chatclient "genai-studio/chat-api/internal/utils/httpclients/chat"
)

type Application struct {
	httpServer  *httpserver.HTTPServer
	crontab     *crontab.Crontab
	metricsPort int
}

func (application *Application) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(fmt.Sprintf(":%d", application.metricsPort), mux)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := application.crontab.Run(ctx)
		if err != nil {
			cancel()
		}
		return err
	})
	eg.Go(func() error {
		err := application.httpServer.Run()
		if err != nil {
			cancel()
		}
		return err
	})

	if err := eg.Wait(); err != nil {
		panic(err)
	}
}

func main() {
	bootLog := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("configure logger")
	}

	db, err := database.NewDB(cfg.DatabaseURL, cfg.DBReadDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if cfg.AutoMigrate {
		if err := database.Migration(db); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}
	}

	txDB := transaction.NewDatabase(db)
	conversationRepo := conversationrepo.NewConversationGormRepository(txDB)
	conversationService := conversation.NewConversationService(conversationRepo, cfg.TitleMaxChars)

	completionClient := chatclient.NewCompletionClient(
		httpclients.NewClient("genai"),
		chatclient.Config{
			BaseURL:     cfg.GenAIBaseURL,
			APIKey:      cfg.GenAIAPIKey,
			Model:       cfg.GenAIModel,
			Temperature: cfg.GenAITemperature,
			MaxTokens:   cfg.GenAIMaxTokens,
			Timeout:     cfg.CompletionTimeout,
			MaxRetries:  cfg.CompletionMaxRetries,
			Backoff:     cfg.CompletionRetryBackoff,
		},
	)

	textExtractor := extractor.New(cfg.ExtractMaxChars)
	chatService := chat.NewService(conversationService, completionClient, textExtractor, chat.Config{
		ContextWindow:    cfg.ContextWindow,
		RetentionDays:    cfg.RetentionDays,
		SweepProbability: cfg.RetentionSweepProbability,
	})

	chatRoute := routes.NewChatRoute(chathandler.NewChatHandler(chatService, cfg))
	conversationRoute := routes.NewConversationRoute(conversationhandler.NewConversationHandler(conversationService, cfg))
	systemRoute := routes.NewSystemRoute(systemhandler.NewSystemHandler(chatService, conversationService, db, cfg))

	application := &Application{
		httpServer:  httpserver.NewHttpServer(chatRoute, conversationRoute, systemRoute, cfg),
		crontab:     crontab.NewCrontab(chatService, cfg.RetentionSweepCron),
		metricsPort: cfg.MetricsPort,
	}

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("model", cfg.GenAIModel).
		Str("course", cfg.CourseName).
		Msg("starting chat API")

	application.Start()
}
