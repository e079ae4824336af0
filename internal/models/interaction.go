package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Interaction directions
type InteractionDirection string

const (
	DirectionPayin  InteractionDirection = "PAYIN"  // user bought outcome tokens
	DirectionPayout InteractionDirection = "PAYOUT" // user sold / was paid out
)

// BetInteraction is one history record of a user trading against a bet.
// Written inside the same transaction as the trade itself.
type BetInteraction struct {
	ID               uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	BetID            string               `gorm:"size:64;not null;index" json:"bet_id"`
	EventID          string               `gorm:"size:64;index" json:"event_id"`
	UserID           string               `gorm:"size:64;not null;index" json:"user_id"`
	Direction        InteractionDirection `gorm:"size:10;not null;index" json:"direction"`
	OutcomeIndex     int                  `gorm:"not null" json:"outcome_index"`
	InvestmentAmount decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"investment_amount"`
	ReturnAmount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"return_amount"`
	CreatedAt        time.Time            `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for BetInteraction model
func (BetInteraction) TableName() string {
	return "bet_interactions"
}
