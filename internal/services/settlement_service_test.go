package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"streambet/internal/amm"
	"streambet/internal/models"

	"gorm.io/gorm"
)

func newSettlementService(t *testing.T) (*SettlementService, *fakeEngine, *gorm.DB) {
	db := setupTestDB(t)
	engine := newFakeEngine()
	users := NewUserService(db)
	notifier := NewNotificationService(db, &fakePublisher{})
	bets := NewBetService(db, engine, users, notifier)
	return NewSettlementService(db, engine, users, bets, notifier), engine, db
}

func seedOpenBets(t *testing.T, db *gorm.DB, betID string, userIDs ...string) {
	users := NewUserService(db)
	for _, userID := range userIDs {
		if err := users.AddOpenBet(db, userID, betID); err != nil {
			t.Fatalf("failed to seed open bet for %s: %v", userID, err)
		}
	}
}

func TestResolveBet(t *testing.T) {
	svc, engine, db := newSettlementService(t)
	bet := createTestBet(t, db, time.Now().Add(-time.Hour))
	seedOpenBets(t, db, bet.ID, "alice", "bob", "carol")

	// Carol holds tokens in both outcomes; the liquidity wallet must be
	// skipped entirely.
	engine.investors[outcomeKey(bet.ID, 0)] = []amm.Investor{
		{Owner: "alice", Balance: 3 * amm.One},
		{Owner: "carol", Balance: 2 * amm.One},
		{Owner: "BET_liquidity", Balance: 100 * amm.One},
	}
	engine.investors[outcomeKey(bet.ID, 1)] = []amm.Investor{
		{Owner: "bob", Balance: 5 * amm.One},
		{Owner: "carol", Balance: 2 * amm.One},
	}

	resolved, err := svc.ResolveBet(context.Background(), bet.ID, 1)
	if err != nil {
		t.Fatalf("ResolveBet failed: %v", err)
	}
	if resolved.FinalOutcome == nil || *resolved.FinalOutcome != 1 {
		t.Fatal("expected final outcome 1 to be stamped")
	}

	var stored models.Bet
	if err := db.First(&stored, "id = ?", bet.ID).Error; err != nil {
		t.Fatalf("failed to reload bet: %v", err)
	}
	if stored.FinalOutcome == nil || *stored.FinalOutcome != 1 {
		t.Error("final outcome not persisted")
	}

	var entries []models.UserBet
	if err := db.Where("bet_id = ?", bet.ID).Find(&entries).Error; err != nil {
		t.Fatalf("failed to load user bets: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 settled holders, got %d", len(entries))
	}

	settled := make(map[string]models.UserBet)
	for _, e := range entries {
		if e.Status != models.UserBetStatusClosed {
			t.Errorf("holder %s not closed", e.UserID)
		}
		settled[e.UserID] = e
	}

	cases := []struct {
		userID   string
		invested string
		won      string
	}{
		{"alice", "3.0000", "0.0000"},
		{"bob", "5.0000", "5.0000"},
		{"carol", "4.0000", "2.0000"},
	}
	for _, c := range cases {
		e, ok := settled[c.userID]
		if !ok {
			t.Errorf("holder %s was not settled", c.userID)
			continue
		}
		if e.AmountInvested.StringFixed(4) != c.invested {
			t.Errorf("%s invested: expected %s, got %s", c.userID, c.invested, e.AmountInvested.StringFixed(4))
		}
		if e.AmountWon.StringFixed(4) != c.won {
			t.Errorf("%s won: expected %s, got %s", c.userID, c.won, e.AmountWon.StringFixed(4))
		}
	}

	if _, ok := settled["BET_liquidity"]; ok {
		t.Error("system wallet was settled like a user position")
	}

	// Only winners get the automatic payout
	if len(engine.payouts) != 2 {
		t.Fatalf("expected 2 payouts, got %d", len(engine.payouts))
	}
	for _, p := range engine.payouts {
		if strings.HasSuffix(p, "|alice") {
			t.Error("losing holder alice received a payout")
		}
	}
}

func TestResolveBetTwice(t *testing.T) {
	svc, engine, db := newSettlementService(t)
	bet := createTestBet(t, db, time.Now().Add(-time.Hour))
	engine.investors[outcomeKey(bet.ID, 0)] = []amm.Investor{{Owner: "alice", Balance: amm.One}}
	seedOpenBets(t, db, bet.ID, "alice")

	if _, err := svc.ResolveBet(context.Background(), bet.ID, 0); err != nil {
		t.Fatalf("first ResolveBet failed: %v", err)
	}

	_, err := svc.ResolveBet(context.Background(), bet.ID, 1)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestResolveBetRetriesAfterSettlementFailure(t *testing.T) {
	svc, engine, db := newSettlementService(t)
	bet := createTestBet(t, db, time.Now().Add(-time.Hour))
	seedOpenBets(t, db, bet.ID, "alice")
	engine.investors[outcomeKey(bet.ID, 0)] = []amm.Investor{{Owner: "alice", Balance: 2 * amm.One}}
	engine.investorsErr = errors.New("engine unavailable")

	_, err := svc.ResolveBet(context.Background(), bet.ID, 0)
	if err == nil {
		t.Fatal("expected enumeration failure, got nil")
	}
	if errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("transient failure reported as already resolved: %v", err)
	}

	// The stamp committed but alice's position survived the aborted settlement
	var entry models.UserBet
	if err := db.Where("user_id = ? AND bet_id = ?", "alice", bet.ID).First(&entry).Error; err != nil {
		t.Fatalf("failed to load alice's entry: %v", err)
	}
	if entry.Status != models.UserBetStatusOpen {
		t.Fatalf("expected alice still open after failed settlement, got %s", entry.Status)
	}

	// Retrying with the same outcome finishes the settlement
	resolved, err := svc.ResolveBet(context.Background(), bet.ID, 0)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if resolved.FinalOutcome == nil || *resolved.FinalOutcome != 0 {
		t.Fatal("expected final outcome 0 after retry")
	}

	entry = models.UserBet{}
	if err := db.Where("user_id = ? AND bet_id = ?", "alice", bet.ID).First(&entry).Error; err != nil {
		t.Fatalf("failed to reload alice's entry: %v", err)
	}
	if entry.Status != models.UserBetStatusClosed {
		t.Errorf("expected alice closed after retry, got %s", entry.Status)
	}
	if entry.AmountWon.StringFixed(4) != "2.0000" {
		t.Errorf("expected winnings 2.0000, got %s", entry.AmountWon.StringFixed(4))
	}
	if len(engine.payouts) != 1 {
		t.Errorf("expected 1 payout after retry, got %d", len(engine.payouts))
	}

	// Fully settled, a further replay is rejected
	if _, err := svc.ResolveBet(context.Background(), bet.ID, 0); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved after full settlement, got %v", err)
	}
}

func TestResolveBetStillTradable(t *testing.T) {
	svc, _, db := newSettlementService(t)
	bet := createTestBet(t, db, time.Now().Add(time.Hour))

	_, err := svc.ResolveBet(context.Background(), bet.ID, 0)
	if !errors.Is(err, ErrBetStillTradable) {
		t.Fatalf("expected ErrBetStillTradable, got %v", err)
	}

	var count int64
	db.Model(&models.UserBet{}).Where("bet_id = ?", bet.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no settlement rows, got %d", count)
	}
}

func TestResolveBetUnknownOutcome(t *testing.T) {
	svc, _, db := newSettlementService(t)
	bet := createTestBet(t, db, time.Now().Add(-time.Hour))

	if _, err := svc.ResolveBet(context.Background(), bet.ID, 5); err == nil {
		t.Fatal("expected error for unknown outcome index, got nil")
	}
	if _, err := svc.ResolveBet(context.Background(), bet.ID, -1); err == nil {
		t.Fatal("expected error for negative outcome index, got nil")
	}
}

func TestCancelBet(t *testing.T) {
	svc, engine, db := newSettlementService(t)
	bet := createTestBet(t, db, time.Now().Add(-time.Hour))
	seedOpenBets(t, db, bet.ID, "alice", "bob")

	engine.investors[outcomeKey(bet.ID, 0)] = []amm.Investor{
		{Owner: "alice", Balance: 3 * amm.One},
	}
	engine.investors[outcomeKey(bet.ID, 1)] = []amm.Investor{
		{Owner: "alice", Balance: 2 * amm.One},
		{Owner: "bob", Balance: 1 * amm.One},
	}
	// Refunds come from what was originally paid in, not the token balance
	engine.investments[holdingKey(bet.ID, 0, "alice")] = 40000
	engine.investments[holdingKey(bet.ID, 1, "alice")] = 15000
	engine.investments[holdingKey(bet.ID, 1, "bob")] = 12000

	if _, err := svc.CancelBet(context.Background(), bet.ID); err != nil {
		t.Fatalf("CancelBet failed: %v", err)
	}

	var alice models.UserBet
	if err := db.Where("user_id = ? AND bet_id = ?", "alice", bet.ID).First(&alice).Error; err != nil {
		t.Fatalf("failed to load alice's entry: %v", err)
	}
	if alice.Status != models.UserBetStatusClosed {
		t.Errorf("expected alice's bet closed, got %s", alice.Status)
	}
	if alice.AmountInvested.StringFixed(4) != "5.0000" {
		t.Errorf("alice invested: expected 5.0000, got %s", alice.AmountInvested.StringFixed(4))
	}
	if alice.AmountWon.StringFixed(4) != "5.5000" {
		t.Errorf("alice refund: expected 5.5000, got %s", alice.AmountWon.StringFixed(4))
	}

	var bob models.UserBet
	if err := db.Where("user_id = ? AND bet_id = ?", "bob", bet.ID).First(&bob).Error; err != nil {
		t.Fatalf("failed to load bob's entry: %v", err)
	}
	if bob.AmountWon.StringFixed(4) != "1.2000" {
		t.Errorf("bob refund: expected 1.2000, got %s", bob.AmountWon.StringFixed(4))
	}

	if len(engine.payouts) != 2 {
		t.Errorf("expected payouts for both holders, got %d", len(engine.payouts))
	}

	var event models.Event
	if err := db.First(&event, "id = ?", bet.EventID).Error; err != nil {
		t.Fatalf("failed to reload event: %v", err)
	}
	if event.State != models.EventStateCancelled {
		t.Errorf("expected event cancelled, got %s", event.State)
	}
}

func TestCancelResolvedBet(t *testing.T) {
	svc, _, db := newSettlementService(t)
	bet := createTestBet(t, db, time.Now().Add(-time.Hour))

	final := 0
	if err := db.Model(&models.Bet{}).Where("id = ?", bet.ID).Update("final_outcome", final).Error; err != nil {
		t.Fatalf("failed to stamp outcome: %v", err)
	}

	_, err := svc.CancelBet(context.Background(), bet.ID)
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}
