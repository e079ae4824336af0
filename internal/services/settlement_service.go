package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"streambet/internal/amm"
	"streambet/internal/amount"
	"streambet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HolderSettlement is one investor's aggregated settlement across all
// outcomes of a bet: total token balance held (display units) and the part
// owed back because it sat on the final outcome.
type HolderSettlement struct {
	Balance int64
	Won     int64
}

// SettlementService finalizes every investor's position once a bet's
// outcome is known or the bet is cancelled. Each affected holder is visited
// exactly once per bet, even when they hold tokens in several outcomes.
type SettlementService struct {
	db       *gorm.DB
	engine   amm.Engine
	users    *UserService
	bets     *BetService
	notifier *NotificationService
}

// NewSettlementService creates a new settlement service
func NewSettlementService(db *gorm.DB, engine amm.Engine, users *UserService, bets *BetService, notifier *NotificationService) *SettlementService {
	return &SettlementService{
		db:       db,
		engine:   engine,
		users:    users,
		bets:     bets,
		notifier: notifier,
	}
}

// ClearOpenBets settles every investor of a resolved bet: their bet moves
// from the open to the closed set with the balance they held recorded as
// invested and, when their outcome matches the final one, also as won.
// Internal engine wallets are skipped. Returns the per-holder settlement map
// for downstream notification and payout.
func (s *SettlementService) ClearOpenBets(ctx context.Context, bet *models.Bet) (map[string]*HolderSettlement, error) {
	if bet.FinalOutcome == nil {
		return nil, fmt.Errorf("bet %s has no final outcome", bet.ID)
	}

	settlements, err := s.enumerateHolders(ctx, bet, func(outcomeIndex int, inv amm.Investor, h *HolderSettlement) error {
		balance := inv.Balance / amm.One
		h.Balance += balance
		if outcomeIndex == *bet.FinalOutcome {
			h.Won += balance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for userID, h := range settlements {
			invested := decimal.NewFromInt(h.Balance)
			won := decimal.NewFromInt(h.Won)
			if err := s.users.ClearOpenBetAndAddToClosed(tx, userID, bet.ID, invested, won); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlements, nil
}

// RefundUserHistory settles a cancelled bet: every holder is recorded with
// the balance they held and the amount they originally invested per outcome,
// which is what gets refunded. Returns the distinct affected user ids for
// downstream payout triggering.
func (s *SettlementService) RefundUserHistory(ctx context.Context, bet *models.Bet) ([]string, error) {
	refunds := make(map[string]decimal.Decimal)

	settlements, err := s.enumerateHolders(ctx, bet, func(outcomeIndex int, inv amm.Investor, h *HolderSettlement) error {
		h.Balance += inv.Balance / amm.One

		investment, err := s.engine.InvestmentOf(ctx, bet.ID, outcomeIndex, inv.Owner)
		if err != nil {
			return fmt.Errorf("failed to read investment of %s: %w", inv.Owner, err)
		}
		refunds[inv.Owner] = refunds[inv.Owner].Add(amount.FromBase(investment))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for userID, h := range settlements {
			if err := s.users.ClearOpenBetAndAddToClosed(tx, userID, bet.ID, decimal.NewFromInt(h.Balance), refunds[userID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(settlements))
	for userID := range settlements {
		userIDs = append(userIDs, userID)
	}
	return userIDs, nil
}

// enumerateHolders walks every outcome's investor list and aggregates per
// holder, so each user is settled once per bet. The visit callback runs once
// per (outcome, holder) pair to accumulate amounts.
func (s *SettlementService) enumerateHolders(ctx context.Context, bet *models.Bet, visit func(outcomeIndex int, inv amm.Investor, h *HolderSettlement) error) (map[string]*HolderSettlement, error) {
	holders := make(map[string]*HolderSettlement)

	for _, outcome := range bet.Outcomes {
		investors, err := s.engine.InvestorsOf(ctx, bet.ID, outcome.OutcomeIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate investors of outcome %d: %w", outcome.OutcomeIndex, err)
		}

		for _, inv := range investors {
			if strings.HasPrefix(inv.Owner, amm.SystemWalletPrefix) {
				continue
			}

			h, ok := holders[inv.Owner]
			if !ok {
				h = &HolderSettlement{}
				holders[inv.Owner] = h
			}
			if err := visit(outcome.OutcomeIndex, inv, h); err != nil {
				return nil, err
			}
		}
	}
	return holders, nil
}

// AutomaticPayout requests the engine payout for each winning user. The
// bookkeeping was already settled by the enumeration pass, so this goes
// straight to the engine, whose payout is idempotent per user. Failures are
// independent and retryable per user; one failure never blocks the rest.
func (s *SettlementService) AutomaticPayout(ctx context.Context, winningUsers []string, bet *models.Bet) {
	for _, userID := range winningUsers {
		ammCtx, cancel := context.WithTimeout(ctx, ammCallTimeout)
		err := s.engine.Payout(ammCtx, bet.ID, userID)
		cancel()
		if err != nil {
			log.Printf("[SETTLEMENT] payout failed for user %s on bet %s: %v", userID, bet.ID, err)
		}
	}
}

// ResolveBet stamps the final outcome of a closed bet, settles every
// investor, pays out the winners, and notifies each affected user. The stamp
// and the settlement cannot commit together (settlement reads the engine), so
// a request whose outcome matches an already-stamped one is treated as a
// retry: settlement re-runs as long as open positions remain. Settlement
// writes are idempotent upserts and the engine payout is idempotent per user,
// so a replay never double-settles.
func (s *SettlementService) ResolveBet(ctx context.Context, betID string, finalOutcome int) (*models.Bet, error) {
	bet, err := s.bets.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if finalOutcome < 0 || finalOutcome >= len(bet.Outcomes) {
		return nil, fmt.Errorf("outcome %d does not exist on bet %s", finalOutcome, betID)
	}

	if bet.FinalOutcome != nil {
		if *bet.FinalOutcome != finalOutcome {
			return nil, ErrAlreadyResolved
		}

		var open int64
		err = s.db.WithContext(ctx).Model(&models.UserBet{}).
			Where("bet_id = ? AND status = ?", betID, models.UserBetStatusOpen).
			Count(&open).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count open positions: %w", err)
		}
		if open == 0 {
			return nil, ErrAlreadyResolved
		}
		// Stamped but not fully settled: an earlier attempt was cut short
		// after the stamp committed. Fall through and settle again.
	} else {
		if bet.IsTradable(time.Now()) {
			return nil, ErrBetStillTradable
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&models.Bet{}).
				Where("id = ? AND final_outcome IS NULL", betID).
				Update("final_outcome", finalOutcome)
			if result.Error != nil {
				return fmt.Errorf("failed to stamp final outcome: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrAlreadyResolved
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		bet.FinalOutcome = &finalOutcome
	}

	settlements, err := s.ClearOpenBets(ctx, bet)
	if err != nil {
		return nil, err
	}

	outcomeName := bet.Outcomes[finalOutcome].Name
	winners := make([]string, 0, len(settlements))
	for userID, h := range settlements {
		if h.Won > 0 {
			winners = append(winners, userID)
		}
		s.notifier.BetResolved(ctx, userID, bet.ID, bet.MarketQuestion, outcomeName,
			amount.Unscale(h.Balance*amm.One), amount.Unscale(h.Won*amm.One))
	}

	s.AutomaticPayout(ctx, winners, bet)
	return bet, nil
}

// CancelBet refunds every investor of a cancelled bet, stamps the owning
// event cancelled, and triggers the refund payouts.
func (s *SettlementService) CancelBet(ctx context.Context, betID string) (*models.Bet, error) {
	bet, err := s.bets.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.FinalOutcome != nil {
		return nil, ErrAlreadyResolved
	}

	userIDs, err := s.RefundUserHistory(ctx, bet)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ?", bet.EventID).
		Update("state", models.EventStateCancelled).Error
	if err != nil {
		return nil, fmt.Errorf("failed to cancel event %s: %w", bet.EventID, err)
	}

	if len(userIDs) > 0 {
		s.AutomaticPayout(ctx, userIDs, bet)
	}
	return bet, nil
}
