package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/zenithmed/procureflow/internal/export"
	"github.com/zenithmed/procureflow/internal/models"
	"github.com/zenithmed/procureflow/internal/repository"
	"go.uber.org/zap"
)

// ExportHandler renders requisitions to Excel workbooks for filing.
type ExportHandler struct {
	renderer     *export.WorkbookRenderer
	requisitions *repository.RequisitionRepository
	items        *repository.ItemRepository
	histology    *repository.HistologyRepository
	logs         *repository.ApprovalLogRepository
	payments     *repository.PaymentRepository
	outputDir    string
	logger       *zap.Logger
}

// NewExportHandler creates an export handler.
func NewExportHandler(
	renderer *export.WorkbookRenderer,
	requisitions *repository.RequisitionRepository,
	items *repository.ItemRepository,
	histology *repository.HistologyRepository,
	logs *repository.ApprovalLogRepository,
	payments *repository.PaymentRepository,
	outputDir string,
	logger *zap.Logger,
) *ExportHandler {
	return &ExportHandler{
		renderer:     renderer,
		requisitions: requisitions,
		items:        items,
		histology:    histology,
		logs:         logs,
		payments:     payments,
		outputDir:    outputDir,
		logger:       logger,
	}
}

// Export renders the requisition workbook and serves it as a download.
func (h *ExportHandler) Export(c *gin.Context) {
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
	if req.Payments, err = h.payments.ListByRequisition(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("requisition_%s.xlsx", req.ID)
	outputPath := filepath.Join(h.outputDir, filename)
	if err := h.renderer.Render(req, outputPath); err != nil {
		respondError(c, err)
		return
	}

	c.FileAttachment(outputPath, filename)
}
