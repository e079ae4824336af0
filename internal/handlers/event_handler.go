package handlers

import (
	"net/http"
	"strconv"

	"streambet/internal/auth"
	"streambet/internal/models"
	"streambet/internal/services"

	"github.com/gin-gonic/gin"
)

// EventHandler serves event records and room chat
type EventHandler struct {
	events   *services.EventService
	notifier *services.NotificationService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService, notifier *services.NotificationService) *EventHandler {
	return &EventHandler{events: events, notifier: notifier}
}

// GetEvent returns one event with computed bet statuses
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.events.CalculateAllBetsStatus(event))
}

// ListEvents returns all events with computed bet statuses
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.events.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	for i := range events {
		h.events.CalculateAllBetsStatus(&events[i])
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent creates a new event
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// GetChatMessages returns the newest chat messages of an event room
func (h *EventHandler) GetChatMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	messages, err := h.notifier.ChatHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// PostChatMessage persists a chat message and broadcasts it to the room
func (h *EventHandler) PostChatMessage(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	if err := h.notifier.HandleChatMessage(c.Request.Context(), req.EventID, userID, req.Message); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
