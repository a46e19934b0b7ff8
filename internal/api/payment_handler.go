package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zenithmed/procureflow/internal/payment"
	"github.com/zenithmed/procureflow/internal/repository"
	"github.com/zenithmed/procureflow/internal/storage"
	"go.uber.org/zap"
)

// PaymentHandler serves the payment ledger endpoints.
type PaymentHandler struct {
	ledger   *payment.Ledger
	payments *repository.PaymentRepository
	proofs   *storage.ProofStore
	logger   *zap.Logger
}

// NewPaymentHandler creates a payment handler.
func NewPaymentHandler(ledger *payment.Ledger, payments *repository.PaymentRepository, proofs *storage.ProofStore, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, payments: payments, proofs: proofs, logger: logger}
}

// Add records a partial payment. The request is multipart form data: amount,
// date, and an optional proof file stored before the ledger entry is made.
func (h *PaymentHandler) Add(c *gin.Context) {
	actor := currentUser(c)
	reqID := c.Param("id")
	ctx := c.Request.Context()

	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a number"})
		return
	}
	date := c.PostForm("date")

	proofPath := ""
	if file, err := c.FormFile("proof"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open proof upload"})
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read proof upload"})
			return
		}
		proofPath, err = h.proofs.Save(ctx, actor.ID, reqID, file.Filename, content)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	p, err := h.ledger.AddPayment(ctx, actor, reqID, amount, date, proofPath)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// MarkPaid sets the terminal Paid status once the balance is zero.
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	if err := h.ledger.MarkAsPaid(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns a requisition's payments and the outstanding balance.
func (h *PaymentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	reqID := c.Param("id")

	payments, err := h.payments.ListByRequisition(ctx, reqID)
	if err != nil {
		respondError(c, err)
		return
	}
	outstanding, err := h.ledger.Outstanding(ctx, reqID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "outstanding": outstanding})
}

// Proof streams a stored payment proof back to the caller.
func (h *PaymentHandler) Proof(c *gin.Context) {
	relPath := c.Query("path")
	if relPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter is required"})
		return
	}
	content, err := h.proofs.Read(c.Request.Context(), relPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "proof not found"})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", content)
}
