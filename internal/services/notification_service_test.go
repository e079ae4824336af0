package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"streambet/internal/models"

	"github.com/google/uuid"
)

func decodeEnvelope(t *testing.T, payload []byte) Envelope {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return env
}

func TestHandleChatMessage(t *testing.T) {
	db := setupTestDB(t)
	pub := &fakePublisher{}
	svc := NewNotificationService(db, pub)

	if err := svc.HandleChatMessage(context.Background(), "event-1", "user-1", "first try!"); err != nil {
		t.Fatalf("HandleChatMessage failed: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(pub.published))
	}
	env := decodeEnvelope(t, pub.published[0])
	if env.To != "event-1" {
		t.Errorf("expected room event-1, got %s", env.To)
	}
	if env.Event != PubSubChatMessage {
		t.Errorf("expected event %s, got %s", PubSubChatMessage, env.Event)
	}
	if env.Data["message"] != "first try!" {
		t.Errorf("unexpected message payload: %v", env.Data["message"])
	}
	if _, ok := env.Data["date"]; !ok {
		t.Error("envelope is missing the date field")
	}

	var count int64
	db.Model(&models.ChatMessage{}).Where("event_id = ?", "event-1").Count(&count)
	if count != 1 {
		t.Errorf("expected 1 persisted message, got %d", count)
	}
}

func TestChatMessagePersistFailureSuppressesPublish(t *testing.T) {
	db := setupTestDB(t)
	pub := &fakePublisher{}
	svc := NewNotificationService(db, pub)

	// Break persistence; the broadcast must not happen either
	db.Exec("DROP TABLE chat_messages")
	defer db.AutoMigrate(&models.ChatMessage{})

	err := svc.HandleChatMessage(context.Background(), "event-1", "user-1", "hello")
	if err == nil {
		t.Fatal("expected persistence error, got nil")
	}
	if len(pub.published) != 0 {
		t.Errorf("message was published despite failed persistence")
	}
}

func TestChatMessagePublishFailureIsSwallowed(t *testing.T) {
	db := setupTestDB(t)
	pub := &fakePublisher{err: errors.New("bus down")}
	svc := NewNotificationService(db, pub)

	if err := svc.HandleChatMessage(context.Background(), "event-1", "user-1", "hello"); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}

	var count int64
	db.Model(&models.ChatMessage{}).Where("event_id = ?", "event-1").Count(&count)
	if count != 1 {
		t.Errorf("expected message persisted despite bus failure, got %d rows", count)
	}
}

func TestBetPlacedBroadcast(t *testing.T) {
	db := setupTestDB(t)
	pub := &fakePublisher{}
	svc := NewNotificationService(db, pub)

	svc.BetPlaced(context.Background(), "event-1", "user-1", "bet-1", "10.0000", 1)

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(pub.published))
	}
	env := decodeEnvelope(t, pub.published[0])
	if env.Event != PubSubBetPlaced {
		t.Errorf("expected event %s, got %s", PubSubBetPlaced, env.Event)
	}
	if env.Data["amount"] != "10.0000" {
		t.Errorf("unexpected amount: %v", env.Data["amount"])
	}
	if env.Data["betId"] != "bet-1" {
		t.Errorf("unexpected bet id: %v", env.Data["betId"])
	}
}

func TestBetResolvedNotice(t *testing.T) {
	db := setupTestDB(t)
	pub := &fakePublisher{}
	svc := NewNotificationService(db, pub)

	svc.BetResolved(context.Background(), "user-1", "bet-1", "Will it rain?", "Yes", "10.0000", "5.0000")

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(pub.published))
	}
	env := decodeEnvelope(t, pub.published[0])
	if env.To != "user-1" {
		t.Errorf("expected private room user-1, got %s", env.To)
	}
	if env.Event != PubSubNotification {
		t.Errorf("expected event %s, got %s", PubSubNotification, env.Event)
	}
	if env.Data["type"] != NotificationTypeBetResolve {
		t.Errorf("unexpected notification type: %v", env.Data["type"])
	}
	msg, _ := env.Data["message"].(string)
	if !strings.Contains(msg, "You won 5.0000.") {
		t.Errorf("expected winnings in message, got %q", msg)
	}

	// Losers get the resolution notice without a winnings line
	pub.published = nil
	svc.BetResolved(context.Background(), "user-2", "bet-1", "Will it rain?", "Yes", "3.0000", "0.0000")
	env = decodeEnvelope(t, pub.published[0])
	msg, _ = env.Data["message"].(string)
	if strings.Contains(msg, "You won") {
		t.Errorf("loser notice mentions winnings: %q", msg)
	}
}

func TestChatHistory(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db, &fakePublisher{})

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		msg := models.ChatMessage{
			ID:      uuid.New(),
			EventID: "event-1",
			UserID:  "user-1",
			Type:    PubSubChatMessage,
			Message: "message",
			Date:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("failed to seed message: %v", err)
		}
	}

	messages, err := svc.ChatHistory(context.Background(), "event-1", 2)
	if err != nil {
		t.Fatalf("ChatHistory failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if !messages[0].Date.After(messages[1].Date) {
		t.Error("expected newest message first")
	}
}
