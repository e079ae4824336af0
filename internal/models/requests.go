package models

import "time"

// ---- Request/Response DTOs ----

// CreateEventRequest is the request body for creating an event
type CreateEventRequest struct {
	Name            string    `json:"name" binding:"required"`
	Tags            string    `json:"tags"`
	StreamURL       string    `json:"streamUrl"`
	PreviewImageURL string    `json:"previewImageUrl"`
	StreamerID      string    `json:"streamerId"`
	Date            time.Time `json:"date"`
	Slug            string    `json:"slug"`
}

// CreateBetRequest is the request body for creating a bet on an event
type CreateBetRequest struct {
	EventID        string    `json:"eventId" binding:"required"`
	MarketQuestion string    `json:"marketQuestion" binding:"required"`
	Description    string    `json:"description"`
	Hot            bool      `json:"hot"`
	Outcomes       []string  `json:"outcomes" binding:"required,min=2"`
	EndDate        time.Time `json:"endDate" binding:"required"`
	Slug           string    `json:"slug"`
}

// PlaceBetRequest is the request body for buying outcome tokens
type PlaceBetRequest struct {
	Amount           string `json:"amount" binding:"required"`
	Outcome          int    `json:"outcome" binding:"min=0"`
	MinOutcomeTokens int64  `json:"minOutcomeTokens"`
}

// PlaceBetResponse echoes the executed trade back to the caller. The
// outcome amount is a post-trade balance snapshot, not a guaranteed-fresh
// value under concurrent trading.
type PlaceBetResponse struct {
	Bet            *Bet   `json:"bet"`
	OutcomeValue   string `json:"outcomeValue"`
	OutcomeAmount  string `json:"outcomeAmount"`
	InvestedAmount string `json:"investedAmount"`
}

// PullOutBetRequest is the request body for selling a full position back
type PullOutBetRequest struct {
	Outcome         int    `json:"outcome" binding:"min=0"`
	MinReturnAmount string `json:"minReturnAmount"`
}

// QuoteRequest is the request body for buy/sell quote calculation
type QuoteRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// OutcomeQuote is one per-outcome entry of a quote response
type OutcomeQuote struct {
	Index   int    `json:"index"`
	Outcome string `json:"outcome"`
}

// ChatMessageRequest is the request body for posting a chat message
type ChatMessageRequest struct {
	EventID string `json:"eventId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ResolveBetRequest stamps the final outcome of a bet
type ResolveBetRequest struct {
	FinalOutcome int `json:"finalOutcome" binding:"min=0"`
}
