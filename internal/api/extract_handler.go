package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/zenithmed/procureflow/internal/invoice"
	"go.uber.org/zap"
)

// ExtractHandler turns uploaded supplier quote PDFs into draft requisition
// items. Available only when quote extraction is configured.
type ExtractHandler struct {
	extractor *invoice.Extractor
	logger    *zap.Logger
}

// NewExtractHandler creates an extract handler.
func NewExtractHandler(extractor *invoice.Extractor, logger *zap.Logger) *ExtractHandler {
	return &ExtractHandler{extractor: extractor, logger: logger}
}

// Extract accepts a multipart quote upload and returns candidate line items.
// The response is a draft for the requester to review, never a submission.
func (h *ExtractHandler) Extract(c *gin.Context) {
	file, err := c.FormFile("quote")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quote file is required"})
		return
	}

	tmp, err := os.CreateTemp("", "quote_*"+filepath.Ext(file.Filename))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload"})
		return
	}

	candidates, err := h.extractor.ExtractFromPDF(c.Request.Context(), tmpPath)
	if err != nil {
		h.logger.Warn("Quote extraction failed", zap.String("file", file.Filename), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, candidates)
}
