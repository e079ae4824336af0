package services

import (
	"errors"
	"fmt"

	"streambet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserService owns the open/closed bet bookkeeping on user records. All
// mutating methods take the *gorm.DB of the enclosing transaction so the
// bookkeeping commits or aborts together with the trade that caused it.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return &user, nil
}

// AddOpenBet inserts the bet into the user's open set. The unique index on
// (user_id, bet_id) makes repeated calls a no-op, so placing a second trade
// on the same bet never duplicates the entry.
func (s *UserService) AddOpenBet(tx *gorm.DB, userID, betID string) error {
	entry := models.UserBet{
		UserID: userID,
		BetID:  betID,
		Status: models.UserBetStatusOpen,
	}
	err := tx.Where("user_id = ? AND bet_id = ?", userID, betID).
		FirstOrCreate(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to record open bet: %w", err)
	}
	return nil
}

// MoveToClosed moves the bet from the user's open set to the closed set.
// Returns false without touching anything when the entry is already closed
// or absent, which makes a repeated payout request a no-op.
func (s *UserService) MoveToClosed(tx *gorm.DB, userID, betID string) (bool, error) {
	var entry models.UserBet
	err := tx.Where("user_id = ? AND bet_id = ?", userID, betID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user bet: %w", err)
	}
	if entry.Status == models.UserBetStatusClosed {
		return false, nil
	}

	entry.Status = models.UserBetStatusClosed
	if err := tx.Save(&entry).Error; err != nil {
		return false, fmt.Errorf("failed to close user bet: %w", err)
	}
	return true, nil
}

// ClearOpenBetAndAddToClosed settles a user's position in one step: the bet
// leaves the open set, enters the closed set, and the invested/won amounts
// are recorded. Used by settlement, where the amounts come from the ledger
// engine's enumeration.
func (s *UserService) ClearOpenBetAndAddToClosed(tx *gorm.DB, userID, betID string, invested, won decimal.Decimal) error {
	entry := models.UserBet{
		UserID: userID,
		BetID:  betID,
	}
	if err := tx.Where("user_id = ? AND bet_id = ?", userID, betID).
		FirstOrCreate(&entry).Error; err != nil {
		return fmt.Errorf("failed to load user bet: %w", err)
	}

	entry.Status = models.UserBetStatusClosed
	entry.AmountInvested = invested
	entry.AmountWon = won
	if err := tx.Save(&entry).Error; err != nil {
		return fmt.Errorf("failed to settle user bet: %w", err)
	}
	return nil
}

// OpenBets returns the ids of the bets the user currently holds a position in.
func (s *UserService) OpenBets(tx *gorm.DB, userID string) ([]string, error) {
	var ids []string
	err := tx.Model(&models.UserBet{}).
		Where("user_id = ? AND status = ?", userID, models.UserBetStatusOpen).
		Pluck("bet_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open bets: %w", err)
	}
	return ids, nil
}
