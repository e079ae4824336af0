package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"streambet/internal/amm"
	"streambet/internal/amount"
	"streambet/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ammCallTimeout bounds every ledger-engine call made while a store
// transaction is open, so a slow engine aborts the transaction instead of
// holding it indefinitely.
const ammCallTimeout = 10 * time.Second

// BetService is the mutating core of the market: it creates bets, places
// and pulls out trades, and triggers payouts, coordinating the record store
// with the external ledger engine. The store transaction and the engine
// cannot commit atomically together, so each operation fixes one ordering:
// bookkeeping-then-ledger for creation and placement, ledger-then-bookkeeping
// for pull-out, where the ledger result determines what gets recorded.
type BetService struct {
	db       *gorm.DB
	engine   amm.Engine
	users    *UserService
	notifier *NotificationService
}

// NewBetService creates a new bet service
func NewBetService(db *gorm.DB, engine amm.Engine, users *UserService, notifier *NotificationService) *BetService {
	return &BetService{
		db:       db,
		engine:   engine,
		users:    users,
		notifier: notifier,
	}
}

// GetBet retrieves a bet with its ordered outcome list
func (s *BetService) GetBet(ctx context.Context, betID string) (*models.Bet, error) {
	var bet models.Bet
	err := s.db.WithContext(ctx).
		Preload("Outcomes", func(db *gorm.DB) *gorm.DB {
			return db.Order("outcome_index ASC")
		}).
		First(&bet, "id = ?", betID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("bet %s: %w", betID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load bet %s: %w", betID, err)
	}
	return &bet, nil
}

// CreateBet persists a new bet on an event and provisions its liquidity.
// Bet and event update commit atomically; liquidity provisioning and the
// creation broadcast run after commit and are logged on failure rather than
// compensated, an accepted eventual-consistency gap.
func (s *BetService) CreateBet(ctx context.Context, req *models.CreateBetRequest, creatorID string) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, "id = ?", req.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %s: %w", req.EventID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load event %s: %w", req.EventID, err)
	}

	outcomes := make([]models.Outcome, len(req.Outcomes))
	for i, name := range req.Outcomes {
		outcomes[i] = models.Outcome{OutcomeIndex: i, Name: name}
	}

	bet := &models.Bet{
		ID:             uuid.NewString(),
		EventID:        event.ID,
		MarketQuestion: req.MarketQuestion,
		Description:    req.Description,
		Hot:            req.Hot,
		Slug:           req.Slug,
		Outcomes:       outcomes,
		EndDate:        req.EndDate,
		CreatorID:      creatorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bet).Error; err != nil {
			return fmt.Errorf("failed to create bet: %w", err)
		}
		// Touch the owning event so its bet list version moves with the bet.
		if err := tx.Model(&event).Update("updated_at", time.Now()).Error; err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ammCtx, cancel := context.WithTimeout(ctx, ammCallTimeout)
	defer cancel()
	if err := s.engine.ProvisionLiquidity(ammCtx, bet.ID, len(outcomes)); err != nil {
		log.Printf("[CREATE-BET] liquidity provisioning failed for bet %s: %v", bet.ID, err)
	}

	s.notifier.BetCreated(ctx, event.ID, creatorID, bet.ID, bet.MarketQuestion)

	eventService := NewEventService(s.db)
	created, err := eventService.GetEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return eventService.CalculateAllBetsStatus(created), nil
}

// PlaceBet buys outcome tokens for a user. The open-bet marker, the history
// record, and the engine buy share one transaction; the engine call is the
// point of truth, so an engine rejection rolls the bookkeeping back and a
// bookkeeping failure never reaches the engine.
func (s *BetService) PlaceBet(ctx context.Context, betID, userID, displayAmount string, outcomeIndex int, minOutcomeTokens int64) (*models.PlaceBetResponse, error) {
	bet, err := s.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}

	if !bet.IsTradable(time.Now()) {
		return nil, ErrBetNotTradable
	}
	if outcomeIndex < 0 || outcomeIndex >= len(bet.Outcomes) {
		return nil, fmt.Errorf("outcome %d does not exist on bet %s", outcomeIndex, betID)
	}

	base, err := amount.Scale(displayAmount)
	if err != nil {
		return nil, err
	}
	if base <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", displayAmount)
	}

	minTokensToBuy := int64(1)
	if minOutcomeTokens > 1 {
		minTokensToBuy = minOutcomeTokens
	}

	var balance int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.AddOpenBet(tx, userID, betID); err != nil {
			return err
		}

		interaction := &models.BetInteraction{
			ID:               uuid.New(),
			BetID:            betID,
			EventID:          bet.EventID,
			UserID:           userID,
			Direction:        models.DirectionPayin,
			OutcomeIndex:     outcomeIndex,
			InvestmentAmount: amount.FromBase(base),
		}
		if err := tx.Create(interaction).Error; err != nil {
			return fmt.Errorf("failed to record interaction: %w", err)
		}

		ammCtx, cancel := context.WithTimeout(ctx, ammCallTimeout)
		defer cancel()

		if err := s.engine.Buy(ammCtx, betID, userID, base, outcomeIndex, minTokensToBuy*amm.One); err != nil {
			return fmt.Errorf("engine buy failed: %w", err)
		}

		// Best-effort snapshot: a concurrent trade may land between the buy
		// and this read; only the committed trade amount is authoritative.
		balance, err = s.engine.BalanceOf(ammCtx, betID, outcomeIndex, userID)
		if err != nil {
			return fmt.Errorf("failed to read balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invested := amount.Unscale(base)
	s.notifier.BetPlaced(ctx, bet.EventID, userID, betID, invested, outcomeIndex)

	return &models.PlaceBetResponse{
		Bet:            bet,
		OutcomeValue:   bet.Outcomes[outcomeIndex].Name,
		OutcomeAmount:  amount.Unscale(balance),
		InvestedAmount: invested,
	}, nil
}

// PullOutBet sells a user's entire stake in one outcome back to the engine.
// Only legal once trading has ended and before settlement; the tradability
// check runs before any engine call. Every failure inside the transaction
// aborts it and surfaces to the caller.
func (s *BetService) PullOutBet(ctx context.Context, betID, userID string, outcomeIndex int, minReturnAmount string) (*models.Bet, error) {
	bet, err := s.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}

	if bet.IsTradable(time.Now()) {
		return nil, ErrBetStillTradable
	}
	if outcomeIndex < 0 || outcomeIndex >= len(bet.Outcomes) {
		return nil, fmt.Errorf("outcome %d does not exist on bet %s", outcomeIndex, betID)
	}

	var minReturn int64
	if minReturnAmount != "" {
		minReturn, err = amount.Scale(minReturnAmount)
		if err != nil {
			return nil, err
		}
	}

	var result *amm.SellResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ammCtx, cancel := context.WithTimeout(ctx, ammCallTimeout)
		defer cancel()

		// The engine balance is the source of truth for what gets sold and
		// recorded, so the ledger calls come first.
		sellAmount, err := s.engine.BalanceOf(ammCtx, betID, outcomeIndex, userID)
		if err != nil {
			return fmt.Errorf("failed to read balance: %w", err)
		}

		result, err = s.engine.Sell(ammCtx, betID, userID, sellAmount, outcomeIndex, minReturn)
		if err != nil {
			return fmt.Errorf("engine sell failed: %w", err)
		}

		earned := amount.FromBase(result.EarnedTokens)
		if err := s.users.ClearOpenBetAndAddToClosed(tx, userID, betID, amount.FromBase(sellAmount), earned); err != nil {
			return err
		}

		interaction := &models.BetInteraction{
			ID:           uuid.New(),
			BetID:        betID,
			EventID:      bet.EventID,
			UserID:       userID,
			Direction:    models.DirectionPayout,
			OutcomeIndex: outcomeIndex,
			ReturnAmount: earned,
		}
		if err := tx.Create(interaction).Error; err != nil {
			return fmt.Errorf("failed to record interaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.BetPulledOut(ctx, bet.EventID, userID, betID,
		amount.Unscale(result.EarnedTokens), outcomeIndex, amount.Unscale(result.CurrentPrice))

	return bet, nil
}

// PayoutBet releases a user's winnings for a bet. A second request for an
// already-closed bet is a no-op, not an error: the bookkeeping move is
// skipped and the engine is not called again.
func (s *BetService) PayoutBet(ctx context.Context, betID, userID string) (*models.Bet, error) {
	bet, err := s.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.users.MoveToClosed(tx, userID, betID)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}

		ammCtx, cancel := context.WithTimeout(ctx, ammCallTimeout)
		defer cancel()
		if err := s.engine.Payout(ammCtx, betID, userID); err != nil {
			return fmt.Errorf("engine payout failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// CalculateBuyOutcome quotes, for every outcome, the tokens a hypothetical
// buy of the given amount would yield. Pure read, no transaction.
func (s *BetService) CalculateBuyOutcome(ctx context.Context, betID, displayAmount string) ([]models.OutcomeQuote, error) {
	return s.calculateOutcomes(ctx, betID, displayAmount, s.engine.QuoteBuy)
}

// CalculateSellOutcome quotes, for every outcome, the return a hypothetical
// sell of the given amount would yield. Pure read, no transaction.
func (s *BetService) CalculateSellOutcome(ctx context.Context, betID, displayAmount string) ([]models.OutcomeQuote, error) {
	return s.calculateOutcomes(ctx, betID, displayAmount, s.engine.QuoteSell)
}

func (s *BetService) calculateOutcomes(ctx context.Context, betID, displayAmount string, quote func(context.Context, string, int64, int) (int64, error)) ([]models.OutcomeQuote, error) {
	bet, err := s.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}

	base, err := amount.Scale(displayAmount)
	if err != nil {
		return nil, err
	}
	if base <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", displayAmount)
	}

	quotes := make([]models.OutcomeQuote, 0, len(bet.Outcomes))
	for _, outcome := range bet.Outcomes {
		value, err := quote(ctx, betID, base, outcome.OutcomeIndex)
		if err != nil {
			return nil, fmt.Errorf("quote for outcome %d failed: %w", outcome.OutcomeIndex, err)
		}
		quotes = append(quotes, models.OutcomeQuote{
			Index:   outcome.OutcomeIndex,
			Outcome: amount.Unscale(value),
		})
	}
	return quotes, nil
}

// BetHistory returns the interaction records of a bet, optionally filtered
// by direction and a trailing time range.
func (s *BetService) BetHistory(ctx context.Context, betID, direction, rangeType string, rangeValue int) ([]models.BetInteraction, error) {
	if _, err := s.GetBet(ctx, betID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("bet_id = ?", betID)

	if direction != "" {
		query = query.Where("direction = ?", direction)
	}

	if rangeType != "" && rangeValue > 0 {
		var unit time.Duration
		switch rangeType {
		case "hour":
			unit = time.Hour
		case "day":
			unit = 24 * time.Hour
		case "week":
			unit = 7 * 24 * time.Hour
		default:
			return nil, fmt.Errorf("unknown range type %q", rangeType)
		}
		query = query.Where("created_at >= ?", time.Now().Add(-time.Duration(rangeValue)*unit))
	}

	var interactions []models.BetInteraction
	if err := query.Order("created_at ASC").Find(&interactions).Error; err != nil {
		return nil, fmt.Errorf("failed to load bet history: %w", err)
	}
	return interactions, nil
}
