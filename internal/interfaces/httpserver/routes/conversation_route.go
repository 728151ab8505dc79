package routes

import (
	"github.com/gin-gonic/gin"

	"genai-studio/chat-api/internal/interfaces/httpserver/handlers/conversationhandler"
)

type ConversationRoute struct {
	handler *conversationhandler.ConversationHandler
}

func NewConversationRoute(handler *conversationhandler.ConversationHandler) *ConversationRoute {
	return &ConversationRoute{handler: handler}
}

func (route *ConversationRoute) RegisterRouter(router gin.IRouter) {
	conversations := router.Group("/conversations")
	conversations.GET("", route.handler.List)
	conversations.GET("/:id", route.handler.Get)
	conversations.DELETE("/:id", route.handler.Delete)
	conversations.GET("/:id/export", route.handler.Export)
}
