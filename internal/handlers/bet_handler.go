package handlers

import (
	"net/http"
	"strconv"

	"streambet/internal/auth"
	"streambet/internal/models"
	"streambet/internal/services"

	"github.com/gin-gonic/gin"
)

// BetHandler serves the bet lifecycle: creation, trading, quotes, payout,
// history, and the resolution/cancellation triggers.
type BetHandler struct {
	bets       *services.BetService
	settlement *services.SettlementService
}

// NewBetHandler creates a new bet handler
func NewBetHandler(bets *services.BetService, settlement *services.SettlementService) *BetHandler {
	return &BetHandler{bets: bets, settlement: settlement}
}

// CreateBet creates a new bet on an event
func (h *BetHandler) CreateBet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	event, err := h.bets.CreateBet(c.Request.Context(), &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// PlaceBet buys outcome tokens on a tradable bet
func (h *BetHandler) PlaceBet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	response, err := h.bets.PlaceBet(c.Request.Context(), c.Param("id"), userID, req.Amount, req.Outcome, req.MinOutcomeTokens)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// PullOutBet sells the user's entire stake in one outcome back
func (h *BetHandler) PullOutBet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.PullOutBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	bet, err := h.bets.PullOutBet(c.Request.Context(), c.Param("id"), userID, req.Outcome, req.MinReturnAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bet)
}

// PayoutBet releases the caller's winnings for a settled bet
func (h *BetHandler) PayoutBet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bet, err := h.bets.PayoutBet(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bet)
}

// CalculateBuyOutcome quotes a hypothetical buy for every outcome
func (h *BetHandler) CalculateBuyOutcome(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	quotes, err := h.bets.CalculateBuyOutcome(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quotes)
}

// CalculateSellOutcome quotes a hypothetical sell for every outcome
func (h *BetHandler) CalculateSellOutcome(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	quotes, err := h.bets.CalculateSellOutcome(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quotes)
}

// BetHistory returns the interaction records of a bet
func (h *BetHandler) BetHistory(c *gin.Context) {
	rangeValue, _ := strconv.Atoi(c.DefaultQuery("rangeValue", "0"))

	interactions, err := h.bets.BetHistory(
		c.Request.Context(),
		c.Param("id"),
		c.Query("direction"),
		c.Query("rangeType"),
		rangeValue,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, interactions)
}

// ResolveBet stamps the final outcome and runs settlement
func (h *BetHandler) ResolveBet(c *gin.Context) {
	var req models.ResolveBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input passed, please check it"})
		return
	}

	bet, err := h.settlement.ResolveBet(c.Request.Context(), c.Param("id"), req.FinalOutcome)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bet)
}

// CancelBet refunds every investor of a cancelled bet
func (h *BetHandler) CancelBet(c *gin.Context) {
	bet, err := h.settlement.CancelBet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bet)
}
