package models

import (
	"time"
)

// EventState tracks the live-stream state of an event
type EventState string

const (
	EventStateScheduled EventState = "scheduled"
	EventStateOnline    EventState = "online"
	EventStateOffline   EventState = "offline"
	EventStateCancelled EventState = "cancelled"
)

// Event represents a live-streamed event that bets are attached to
type Event struct {
	ID              string     `gorm:"primaryKey;size:64" json:"id"`
	Name            string     `gorm:"size:500;not null" json:"name"`
	Slug            string     `gorm:"size:255;index" json:"slug"`
	Tags            string     `gorm:"size:500" json:"tags"`
	StreamURL       string     `gorm:"size:500" json:"stream_url"`
	PreviewImageURL string     `gorm:"size:500" json:"preview_image_url"`
	StreamerID      string     `gorm:"size:64;index" json:"streamer_id"` // upstream broadcaster id used by the webhook
	State           EventState `gorm:"size:20;not null;default:scheduled;index" json:"state"`
	Date            time.Time  `json:"date"`
	Bets            []Bet      `gorm:"foreignKey:EventID" json:"bets,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Event model
func (Event) TableName() string {
	return "events"
}
