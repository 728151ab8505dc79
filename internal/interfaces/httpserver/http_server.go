package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"genai-studio/chat-api/internal/config"
	"genai-studio/chat-api/internal/infrastructure/logger"
	middleware "genai-studio/chat-api/internal/interfaces/httpserver/middlewares"
	"genai-studio/chat-api/internal/interfaces/httpserver/routes"
)

type HTTPServer struct {
	engine            *gin.Engine
	chatRoute         *routes.ChatRoute
	conversationRoute *routes.ConversationRoute
	systemRoute       *routes.SystemRoute
	config            *config.Config
}

func NewHttpServer(
	chatRoute *routes.ChatRoute,
	conversationRoute *routes.ConversationRoute,
	systemRoute *routes.SystemRoute,
	cfg *config.Config,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	server := HTTPServer{
		gin.New(),
		chatRoute,
		conversationRoute,
		systemRoute,
		cfg,
	}
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.Session(cfg.SessionTimeout))
	server.engine.Use(middleware.LoggingMiddleware(logger.GetLogger()))
	server.engine.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	server.engine.Use(middleware.MetricsMiddleware())

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &server
}

func (httpServer *HTTPServer) Run() error {
	root := httpServer.engine.Group("/")

	limited := httpServer.engine.Group("/")
	if httpServer.config.RateLimitEnabled {
		limited.Use(middleware.RateLimitMiddleware(httpServer.config.RateLimitPerMinute))
	}

	httpServer.chatRoute.RegisterRouter(limited)
	httpServer.conversationRoute.RegisterRouter(limited)
	httpServer.systemRoute.RegisterRouter(root)

	if err := httpServer.engine.Run(fmt.Sprintf(":%d", httpServer.config.HTTPPort)); err != nil {
		return err
	}
	return nil
}
