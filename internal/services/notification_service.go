package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"streambet/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pub/sub event names carried in the envelope
const (
	PubSubChatMessage  = "chatMessage"
	PubSubBetPlaced    = "betPlaced"
	PubSubBetPulledOut = "betPulledOut"
	PubSubBetCreated   = "betCreated"
	PubSubNotification = "notification"
)

// NotificationTypeBetResolve tags private resolution notices
const NotificationTypeBetResolve = "Notification/EVENT_RESOLVE"

// Publisher is the write side of the fan-out bus. Publish must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Envelope is the wire shape every fan-out message uses. "to" is the room:
// an event id for broadcasts, a user id for private notices.
type Envelope struct {
	To    string                 `json:"to"`
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// NotificationService persists room messages and fans them out over the
// injected publisher. The bus is best-effort: a failed publish is logged and
// never rolls back the state change that triggered it, but a message that
// could not be persisted is never published.
type NotificationService struct {
	db  *gorm.DB
	pub Publisher
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB, pub Publisher) *NotificationService {
	return &NotificationService{db: db, pub: pub}
}

// persist records the message so room history survives the broadcast.
func (s *NotificationService) persist(ctx context.Context, eventID, userID, msgType, message string, date time.Time) error {
	record := &models.ChatMessage{
		ID:      uuid.New(),
		EventID: eventID,
		UserID:  userID,
		Type:    msgType,
		Message: message,
		Date:    date,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to persist %s message: %w", msgType, err)
	}
	return nil
}

// emit publishes an envelope to a room, adding the date field if absent.
// Publish failures are logged, never retried synchronously, never surfaced.
func (s *NotificationService) emit(ctx context.Context, room, eventName string, data map[string]interface{}) {
	if _, ok := data["date"]; !ok {
		data["date"] = time.Now()
	}

	payload, err := json.Marshal(Envelope{To: room, Event: eventName, Data: data})
	if err != nil {
		log.Printf("[SOCKET] failed to encode %s for room %s: %v", eventName, room, err)
		return
	}

	if err := s.pub.Publish(ctx, payload); err != nil {
		log.Printf("[SOCKET] failed to publish %s to room %s: %v", eventName, room, err)
	}
}

// HandleChatMessage persists a user chat message and broadcasts it to the
// event room. Persistence failure suppresses the broadcast entirely.
func (s *NotificationService) HandleChatMessage(ctx context.Context, eventID, userID, message string) error {
	date := time.Now()
	if err := s.persist(ctx, eventID, userID, PubSubChatMessage, message, date); err != nil {
		return err
	}

	s.emit(ctx, eventID, PubSubChatMessage, map[string]interface{}{
		"eventId": eventID,
		"userId":  userID,
		"message": message,
		"date":    date,
	})
	return nil
}

// BetPlaced broadcasts a committed buy to everyone watching the event.
func (s *NotificationService) BetPlaced(ctx context.Context, eventID, userID, betID, amount string, outcome int) {
	date := time.Now()
	msg := fmt.Sprintf("placed %s on outcome %d", amount, outcome)
	if err := s.persist(ctx, eventID, userID, PubSubBetPlaced, msg, date); err != nil {
		log.Printf("[SOCKET] %v", err)
		return
	}

	s.emit(ctx, eventID, PubSubBetPlaced, map[string]interface{}{
		"eventId": eventID,
		"betId":   betID,
		"userId":  userID,
		"amount":  amount,
		"outcome": outcome,
		"date":    date,
	})
}

// BetPulledOut broadcasts a committed sell-back with the realized amount and
// the resulting outcome price.
func (s *NotificationService) BetPulledOut(ctx context.Context, eventID, userID, betID, amount string, outcome int, currentPrice string) {
	date := time.Now()
	msg := fmt.Sprintf("pulled out %s from outcome %d", amount, outcome)
	if err := s.persist(ctx, eventID, userID, PubSubBetPulledOut, msg, date); err != nil {
		log.Printf("[SOCKET] %v", err)
		return
	}

	s.emit(ctx, eventID, PubSubBetPulledOut, map[string]interface{}{
		"eventId":      eventID,
		"betId":        betID,
		"userId":       userID,
		"amount":       amount,
		"outcome":      outcome,
		"currentPrice": currentPrice,
		"date":         date,
	})
}

// BetCreated announces a new market to the event room.
func (s *NotificationService) BetCreated(ctx context.Context, eventID, userID, betID, title string) {
	date := time.Now()
	if err := s.persist(ctx, eventID, userID, PubSubBetCreated, title, date); err != nil {
		log.Printf("[SOCKET] %v", err)
		return
	}

	s.emit(ctx, eventID, PubSubBetCreated, map[string]interface{}{
		"eventId": eventID,
		"betId":   betID,
		"userId":  userID,
		"title":   title,
		"date":    date,
	})
}

// BetResolved sends a private resolution notice to one user's room.
func (s *NotificationService) BetResolved(ctx context.Context, userID, betID, betQuestion, betOutcome, amountTraded, tokensWon string) {
	message := fmt.Sprintf("The bet %s was resolved. The outcome is %s. You traded %s.", betQuestion, betOutcome, amountTraded)
	if tokensWon != "" && tokensWon != "0.0000" {
		message += fmt.Sprintf(" You won %s.", tokensWon)
	}

	s.emit(ctx, userID, PubSubNotification, map[string]interface{}{
		"type":         NotificationTypeBetResolve,
		"betId":        betID,
		"message":      message,
		"betQuestion":  betQuestion,
		"betOutcome":   betOutcome,
		"amountTraded": amountTraded,
		"tokensWon":    tokensWon,
	})
}

// ChatHistory returns the newest messages of an event room.
func (s *NotificationService) ChatHistory(ctx context.Context, eventID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("date DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return messages, nil
}
