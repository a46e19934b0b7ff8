package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zenithmed/procureflow/internal/payment"
	"github.com/zenithmed/procureflow/internal/workflow"
)

// respondError maps domain errors to HTTP statuses. The error message names
// the violated rule so clients can show it directly.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrConflict),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, payment.ErrNotPayable),
		errors.Is(err, payment.ErrOverpayment),
		errors.Is(err, payment.ErrBalanceOutstanding),
		errors.Is(err, payment.ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrNoItems),
		errors.Is(err, workflow.ErrInvalidQuantity),
		errors.Is(err, workflow.ErrSignatureRequired),
		errors.Is(err, workflow.ErrCommentRequired),
		errors.Is(err, workflow.ErrQueryTargetRequired),
		errors.Is(err, workflow.ErrMissingPrices),
		errors.Is(err, payment.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
