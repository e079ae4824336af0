// Package amm defines the capability interface of the external automated
// market maker that owns all outcome-token balances and pricing. The
// orchestrator never mints, burns, or prices tokens itself; it only
// instructs the engine and treats its answers as authoritative.
package amm

import "context"

// One is the fixed per-token unit factor the engine scales whole-token
// quantities by. It matches the 4 display decimals, so one display unit is
// one engine token.
const One int64 = 10000

// SystemWalletPrefix marks internal engine wallets (liquidity pools, fee
// sinks) that must never be settled like user positions.
const SystemWalletPrefix = "BET"

// Investor is one holder of an outcome token, as enumerated by the engine.
type Investor struct {
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
}

// SellResult is the engine's answer to a sell: the realized return in base
// units and the post-trade outcome price.
type SellResult struct {
	EarnedTokens int64 `json:"earned_tokens"`
	CurrentPrice int64 `json:"current_price"`
}

// Engine is the ledger-of-record capability. All amounts are base units
// (display amount times One). Implementations must serialize conflicting
// trades against the same outcome; callers bound every call with a context
// deadline.
type Engine interface {
	// ProvisionLiquidity seeds initial liquidity for a freshly created
	// bet's outcome tokens. Idempotent per bet id.
	ProvisionLiquidity(ctx context.Context, betID string, outcomeCount int) error

	// Buy spends amount base units on outcome tokens. The engine rejects
	// the trade when fewer than minOutcomeTokens would result.
	Buy(ctx context.Context, betID, userID string, amount int64, outcomeIndex int, minOutcomeTokens int64) error

	// Sell disposes of amount outcome tokens. The engine rejects the trade
	// when the realized return would fall below minReturn.
	Sell(ctx context.Context, betID, userID string, amount int64, outcomeIndex int, minReturn int64) (*SellResult, error)

	// QuoteBuy returns the outcome-token quantity a hypothetical buy of
	// amount base units would yield. No mutation.
	QuoteBuy(ctx context.Context, betID string, amount int64, outcomeIndex int) (int64, error)

	// QuoteSell returns the base-unit return a hypothetical sell of amount
	// outcome tokens would yield. No mutation.
	QuoteSell(ctx context.Context, betID string, amount int64, outcomeIndex int) (int64, error)

	// BalanceOf returns the user's current outcome-token balance.
	BalanceOf(ctx context.Context, betID string, outcomeIndex int, userID string) (int64, error)

	// InvestorsOf enumerates every holder of one outcome's token,
	// including internal system wallets.
	InvestorsOf(ctx context.Context, betID string, outcomeIndex int) ([]Investor, error)

	// InvestmentOf returns what the user originally paid into one outcome,
	// used for cancellation refunds.
	InvestmentOf(ctx context.Context, betID string, outcomeIndex int, userID string) (int64, error)

	// Payout releases the user's winnings for a resolved bet. Idempotent:
	// a second request must not double-pay.
	Payout(ctx context.Context, betID, userID string) error
}
