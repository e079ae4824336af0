package handlers

import (
	"errors"
	"net/http"

	"streambet/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto the HTTP taxonomy: 404 for missing
// resources, 405 for actions illegal in the bet's current state, 422 for
// everything else (validation and processing failures).
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBetNotTradable),
		errors.Is(err, services.ErrBetStillTradable):
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}
