package handlers

import (
	"log"
	"net/http"

	"streambet/internal/models"
	"streambet/internal/services"

	"github.com/gin-gonic/gin"
)

// Upstream webhook headers and message/subscription types
const (
	headerMessageType      = "Twitch-Eventsub-Message-Type"
	headerSubscriptionType = "Twitch-Eventsub-Subscription-Type"

	messageTypeVerification = "webhook_callback_verification"
	messageTypeNotification = "notification"

	subscriptionStreamOnline  = "stream.online"
	subscriptionStreamOffline = "stream.offline"
)

// webhookPayload is the subset of the upstream callback body this service
// reads; everything else is opaque.
type webhookPayload struct {
	Challenge    string `json:"challenge"`
	Subscription struct {
		Type      string `json:"type"`
		Condition struct {
			BroadcasterUserID string `json:"broadcaster_user_id"`
		} `json:"condition"`
	} `json:"subscription"`
}

// WebhookHandler ingests live-stream subscription callbacks: challenge
// messages are echoed back, state notifications flip the linked event
// between online and offline.
type WebhookHandler struct {
	events *services.EventService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(events *services.EventService) *WebhookHandler {
	return &WebhookHandler{events: events}
}

// HandleStreamCallback processes one upstream callback message
func (h *WebhookHandler) HandleStreamCallback(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	switch c.GetHeader(headerMessageType) {
	case messageTypeVerification:
		// Echo the challenge token so the upstream confirms the subscription.
		c.String(http.StatusOK, payload.Challenge)

	case messageTypeNotification:
		var state models.EventState
		switch c.GetHeader(headerSubscriptionType) {
		case subscriptionStreamOnline:
			state = models.EventStateOnline
		case subscriptionStreamOffline:
			state = models.EventStateOffline
		default:
			c.Status(http.StatusOK)
			return
		}

		streamerID := payload.Subscription.Condition.BroadcasterUserID
		if err := h.events.SetStreamState(c.Request.Context(), streamerID, state); err != nil {
			log.Printf("[WEBHOOK] failed to set stream state for %s: %v", streamerID, err)
		}
		c.Status(http.StatusOK)

	default:
		c.Status(http.StatusOK)
	}
}
