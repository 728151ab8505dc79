package routes

import (
	"github.com/gin-gonic/gin"

	"genai-studio/chat-api/internal/interfaces/httpserver/handlers/systemhandler"
)

type SystemRoute struct {
	handler *systemhandler.SystemHandler
}

func NewSystemRoute(handler *systemhandler.SystemHandler) *SystemRoute {
	return &SystemRoute{handler: handler}
}

func (route *SystemRoute) RegisterRouter(router gin.IRouter) {
	router.GET("/health", route.handler.Health)
	router.GET("/stats", route.handler.Stats)
	router.GET("/config-info", route.handler.ConfigInfo)
	router.POST("/clear-session", route.handler.ClearSession)
}
