package models

import (
	"time"
)

// Bet status values computed from the current time and resolution state
const (
	BetStatusUpcoming = "upcoming"
	BetStatusActive   = "active"
	BetStatusClosed   = "closed"
	BetStatusResolved = "resolved"
)

// Bet represents a single market question attached to an event.
// Immutable after creation except for FinalOutcome, which is stamped
// exactly once at resolution.
type Bet struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	EventID        string    `gorm:"size:64;not null;index" json:"event_id"`
	MarketQuestion string    `gorm:"size:500;not null" json:"market_question"`
	Description    string    `gorm:"type:text" json:"description"`
	Hot            bool      `gorm:"default:false" json:"hot"`
	Slug           string    `gorm:"size:255;index" json:"slug"`
	Outcomes       []Outcome `gorm:"foreignKey:BetID" json:"outcomes,omitempty"`
	EndDate        time.Time `gorm:"not null" json:"end_date"`
	FinalOutcome   *int      `json:"final_outcome,omitempty"`
	CreatorID      string    `gorm:"size:64;index" json:"creator_id"`
	Status         string    `gorm:"-" json:"status,omitempty"` // computed, never persisted
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Bet model
func (Bet) TableName() string {
	return "bets"
}

// IsTradable reports whether trades are still accepted: the end date has
// not passed and no final outcome has been stamped.
func (b *Bet) IsTradable(now time.Time) bool {
	return now.Before(b.EndDate) && b.FinalOutcome == nil
}

// ComputedStatus derives the display status from time and resolution state.
func (b *Bet) ComputedStatus(now time.Time) string {
	if b.FinalOutcome != nil {
		return BetStatusResolved
	}
	if !now.Before(b.EndDate) {
		return BetStatusClosed
	}
	if now.Before(b.CreatedAt) {
		return BetStatusUpcoming
	}
	return BetStatusActive
}

// Outcome is one entry of a bet's ordered outcome list. The position index
// is stable and never reused; the ledger engine keys one token type per
// (bet, outcome index) pair.
type Outcome struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	BetID        string `gorm:"size:64;not null;uniqueIndex:idx_bet_outcome" json:"-"`
	OutcomeIndex int    `gorm:"column:outcome_index;not null;uniqueIndex:idx_bet_outcome" json:"index"`
	Name         string `gorm:"size:255;not null" json:"name"`
}

// TableName specifies the table name for Outcome model
func (Outcome) TableName() string {
	return "outcomes"
}
