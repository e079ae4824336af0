package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a persisted room message. Trade/lifecycle broadcasts are
// stored here too (with their event name as Type) so chat history carries
// the full room timeline.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   string    `gorm:"size:64;not null;index" json:"event_id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Type      string    `gorm:"size:50;not null;default:chatMessage" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	Date      time.Time `gorm:"not null;index" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}
