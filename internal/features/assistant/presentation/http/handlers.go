package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flowerchat/backend/internal/apperr"
	"flowerchat/backend/internal/features/assistant/application"
	"flowerchat/backend/internal/features/assistant/domain"
	mphttp "flowerchat/backend/internal/features/marketplace/presentation/http"
)

// AssistantHandler handles HTTP requests for the chat assistant.
type AssistantHandler struct {
	service application.AssistantService
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(service application.AssistantService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// Register mounts the chat routes on group.
func (h *AssistantHandler) Register(group *gin.RouterGroup) {
	group.POST("/chat", h.ChatHandler)
	group.GET("/chat/greeting", h.GreetingHandler)
	group.POST("/chat/checkout", h.CheckoutHandler)
}

// ChatHandler answers one customer message.
func (h *AssistantHandler) ChatHandler(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Chat(c.Request.Context(), mphttp.Token(c), req)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GreetingHandler returns the opening message shown before the first turn.
func (h *AssistantHandler) GreetingHandler(c *gin.Context) {
	greeting, err := h.service.Greeting()
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, greeting)
}

// CheckoutHandler places an order from the chat cart.
func (h *AssistantHandler) CheckoutHandler(c *gin.Context) {
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.Checkout(c.Request.Context(), mphttp.Token(c), req)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
