package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zenithmed/procureflow/internal/models"
	"github.com/zenithmed/procureflow/internal/repository"
	"github.com/zenithmed/procureflow/internal/workflow"
	"go.uber.org/zap"
)

// RequisitionHandler serves the requisition lifecycle endpoints.
type RequisitionHandler struct {
	engine       *workflow.Engine
	requisitions *repository.RequisitionRepository
	items        *repository.ItemRepository
	histology    *repository.HistologyRepository
	logs         *repository.ApprovalLogRepository
	messages     *repository.MessageRepository
	payments     *repository.PaymentRepository
	logger       *zap.Logger
}

// NewRequisitionHandler creates a requisition handler.
func NewRequisitionHandler(
	engine *workflow.Engine,
	requisitions *repository.RequisitionRepository,
	items *repository.ItemRepository,
	histology *repository.HistologyRepository,
	logs *repository.ApprovalLogRepository,
	messages *repository.MessageRepository,
	payments *repository.PaymentRepository,
	logger *zap.Logger,
) *RequisitionHandler {
	return &RequisitionHandler{
		engine:       engine,
		requisitions: requisitions,
		items:        items,
		histology:    histology,
		logs:         logs,
		messages:     messages,
		payments:     payments,
		logger:       logger,
	}
}

type createRequest struct {
	Type           models.RequisitionType  `json:"type" binding:"required"`
	Items          []*models.Item          `json:"items"`
	HistologyItems []*models.HistologyItem `json:"histology_items"`
	Signatures     *models.SignatureSet    `json:"signatures"`
}

// Create submits a new requisition. Purchase orders may yield several
// requisitions, one per supplier group; partially failed splits return the
// created groups alongside a 207.
func (h *RequisitionHandler) Create(c *gin.Context) {
	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := currentUser(c)
	ctx := c.Request.Context()

	switch body.Type {
	case models.TypeStandard:
		req, err := h.engine.SubmitStandard(ctx, actor, body.Items)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"requisitions": []*models.Requisition{req}})

	case models.TypePurchaseOrder:
		created, err := h.engine.SubmitPurchaseOrder(ctx, actor, body.Items, body.Signatures)
		var splitErr *workflow.SplitError
		if errors.As(err, &splitErr) {
			c.JSON(http.StatusMultiStatus, gin.H{
				"requisitions": created,
				"error":        splitErr.Error(),
			})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"requisitions": created})

	case models.TypeHistologyPayment:
		req, err := h.engine.SubmitHistology(ctx, actor, body.HistologyItems, body.Signatures)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"requisitions": []*models.Requisition{req}})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown requisition type"})
	}
}

// List returns requisition headers, newest first.
func (h *RequisitionHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	reqs, err := h.requisitions.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requisitions": reqs})
}

// Get returns one requisition with its items, audit trail, messages and
// payments loaded.
func (h *RequisitionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	req, err := h.requisitions.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "requisition not found"})
		return
	}

	if req.Type == models.TypeHistologyPayment {
		if req.HistologyItems, err = h.histology.ListByRequisition(ctx, id); err != nil {
			respondError(c, err)
			return
		}
	} else {
		if req.Items, err = h.items.ListByRequisition(ctx, id); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Log, err = h.logs.ListByRequisition(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	if req.Messages, err = h.messages.ListByRequisition(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	if req.Payments, err = h.payments.ListByRequisition(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

type reviewRequest struct {
	Signature string `json:"signature"`
	Comment   string `json:"comment"`
}

// Approve advances the requisition one workflow step.
func (h *RequisitionHandler) Approve(c *gin.Context) {
	var body reviewRequest
	_ = c.ShouldBindJSON(&body)

	req, err := h.engine.Approve(c.Request.Context(), currentUser(c), c.Param("id"), body.Signature, body.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type queryRequest struct {
	Target    models.Department `json:"target"`
	Signature string            `json:"signature"`
	Comment   string            `json:"comment"`
}

// Query detours the requisition to Queried for the target department.
func (h *RequisitionHandler) Query(c *gin.Context) {
	var body queryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.engine.Query(c.Request.Context(), currentUser(c), c.Param("id"), body.Target, body.Signature, body.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reject moves the requisition to Rejected.
func (h *RequisitionHandler) Reject(c *gin.Context) {
	var body reviewRequest
	_ = c.ShouldBindJSON(&body)

	err := h.engine.Reject(c.Request.Context(), currentUser(c), c.Param("id"), body.Signature, body.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type priceRequest struct {
	Prices    map[string]float64 `json:"prices" binding:"required"`
	Signature string             `json:"signature"`
}

// Price records unit prices for a purchase order in Pending Store Pricing and
// forwards it to auditor review.
func (h *RequisitionHandler) Price(c *gin.Context) {
	var body priceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.engine.PriceAndSubmit(c.Request.Context(), currentUser(c), c.Param("id"), body.Prices, body.Signature)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type resubmitRequest struct {
	Items          []*models.Item          `json:"items"`
	HistologyItems []*models.HistologyItem `json:"histology_items"`
}

// Resubmit recovers a queried or rejected requisition with a replacement item
// collection.
func (h *RequisitionHandler) Resubmit(c *gin.Context) {
	var body resubmitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.engine.Resubmit(c.Request.Context(), currentUser(c), c.Param("id"), workflow.ResubmitInput{
		Items:          body.Items,
		HistologyItems: body.HistologyItems,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddMessage appends to the requisition's discussion thread.
func (h *RequisitionHandler) AddMessage(c *gin.Context) {
	var body messageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.AddMessage(c.Request.Context(), currentUser(c), c.Param("id"), body.Text); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// ListMessages returns the discussion thread in chronological order.
func (h *RequisitionHandler) ListMessages(c *gin.Context) {
	msgs, err := h.messages.ListByRequisition(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
