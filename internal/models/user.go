package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the system
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// UserBetStatus tracks whether a position is still open or already settled
type UserBetStatus string

const (
	UserBetStatusOpen   UserBetStatus = "open"
	UserBetStatusClosed UserBetStatus = "closed"
)

// UserBet is one entry of a user's open/closed bet set. The unique index on
// (user_id, bet_id) gives the idempotent-insert semantics: a user appears at
// most once per bet regardless of how many trades they place.
type UserBet struct {
	ID             uint            `gorm:"primaryKey" json:"-"`
	UserID         string          `gorm:"size:64;not null;uniqueIndex:idx_user_bet" json:"user_id"`
	BetID          string          `gorm:"size:64;not null;uniqueIndex:idx_user_bet" json:"bet_id"`
	Status         UserBetStatus   `gorm:"size:10;not null;default:open;index" json:"status"`
	AmountInvested decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_invested"`
	AmountWon      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_won"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for UserBet model
func (UserBet) TableName() string {
	return "user_bets"
}
