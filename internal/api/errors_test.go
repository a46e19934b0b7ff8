package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/zenithmed/procureflow/internal/payment"
	"github.com/zenithmed/procureflow/internal/workflow"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{workflow.ErrNotFound, http.StatusNotFound},
		{workflow.ErrNotAuthorized, http.StatusForbidden},
		{workflow.ErrConflict, http.StatusConflict},
		{workflow.ErrInvalidTransition, http.StatusConflict},
		{payment.ErrNotPayable, http.StatusConflict},
		{payment.ErrOverpayment, http.StatusConflict},
		{payment.ErrBalanceOutstanding, http.StatusConflict},
		{payment.ErrAlreadyPaid, http.StatusConflict},
		{workflow.ErrNoItems, http.StatusBadRequest},
		{workflow.ErrInvalidQuantity, http.StatusBadRequest},
		{workflow.ErrSignatureRequired, http.StatusBadRequest},
		{workflow.ErrCommentRequired, http.StatusBadRequest},
		{workflow.ErrQueryTargetRequired, http.StatusBadRequest},
		{workflow.ErrMissingPrices, http.StatusBadRequest},
		{payment.ErrInvalidAmount, http.StatusBadRequest},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}

	// Wrapped errors map the same as their sentinels.
	wrapped := fmt.Errorf("approve: %w", workflow.ErrNotAuthorized)
	if got := statusFor(wrapped); got != http.StatusForbidden {
		t.Errorf("statusFor(wrapped) = %d, want %d", got, http.StatusForbidden)
	}
}
