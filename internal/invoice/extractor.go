package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zenithmed/procureflow/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// CandidateItems is what the model returns: draft requisition lines that a
// human still reviews and edits before submission. Nothing here is trusted.
type CandidateItems struct {
	Supplier string         `json:"supplier"`
	Items    []*models.Item `json:"items"`
}

type extractionResponse struct {
	Supplier string `json:"supplier"`
	Items    []struct {
		Name              string  `json:"name"`
		Quantity          int     `json:"quantity"`
		Description       string  `json:"description"`
		EstimatedUnitCost float64 `json:"estimated_unit_cost"`
	} `json:"items"`
}

// Extractor turns supplier quote text into draft requisition items using an
// LLM. Output is advisory only; the workflow engine revalidates everything.
type Extractor struct {
	client *openai.Client
	reader *PDFReader
	model  string
	logger *zap.Logger
}

// NewExtractor creates a new quote extractor.
func NewExtractor(apiKey, model string, logger *zap.Logger) *Extractor {
	return &Extractor{
		client: openai.NewClient(apiKey),
		reader: NewPDFReader(logger),
		model:  model,
		logger: logger,
	}
}

// ExtractFromPDF reads a quote PDF and proposes requisition line items.
func (e *Extractor) ExtractFromPDF(ctx context.Context, pdfPath string) (*CandidateItems, error) {
	e.logger.Info("Extracting draft items from quote", zap.String("path", pdfPath))

	text, err := e.reader.ReadText(pdfPath)
	if err != nil {
		return nil, err
	}
	return e.ExtractFromText(ctx, text)
}

// ExtractFromText proposes requisition line items from raw quote text.
func (e *Extractor) ExtractFromText(ctx context.Context, quoteText string) (*CandidateItems, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an assistant that reads supplier quotations and price lists for a medical organization and extracts line items. Always respond with valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildExtractionPrompt(quoteText),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("Failed to call extraction API", zap.Error(err))
		return nil, fmt.Errorf("failed to extract quote items: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from extraction API")
	}

	content := resp.Choices[0].Message.Content
	var parsed extractionResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		e.logger.Error("Failed to parse extraction result",
			zap.Error(err),
			zap.String("content", content))
		return nil, fmt.Errorf("failed to parse extraction result: %w", err)
	}

	out := &CandidateItems{Supplier: strings.TrimSpace(parsed.Supplier)}
	for _, it := range parsed.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		out.Items = append(out.Items, &models.Item{
			Name:              name,
			Quantity:          qty,
			Description:       strings.TrimSpace(it.Description),
			Supplier:          out.Supplier,
			EstimatedUnitCost: it.EstimatedUnitCost,
			StockLevel:        0,
		})
	}

	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no usable line items in quote")
	}

	e.logger.Info("Draft items extracted",
		zap.String("supplier", out.Supplier),
		zap.Int("item_count", len(out.Items)))
	return out, nil
}

func buildExtractionPrompt(quoteText string) string {
	return fmt.Sprintf(`Extract the line items from this supplier quotation text:

%s

Return a JSON object with this exact structure:
{
  "supplier": "supplier company name, or empty string if not stated",
  "items": [{"name": "string", "quantity": number, "description": "string", "estimated_unit_cost": number}]
}

IMPORTANT:
- Extract EXACTLY what you see. Do not guess or make up values.
- For amounts, use numbers without currency symbols.
- If a quantity is not stated, use 1.
- If a unit cost is not stated, use 0.`, quoteText)
}
