package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// WorkbookRenderer renders a fully loaded requisition into an Excel workbook
// for printing and filing.
type WorkbookRenderer struct {
	orgName string
	logger  *zap.Logger
}

// NewWorkbookRenderer creates a new workbook renderer.
func NewWorkbookRenderer(orgName string, logger *zap.Logger) *WorkbookRenderer {
	return &WorkbookRenderer{orgName: orgName, logger: logger}
}

// Render writes the requisition, its lines, audit trail and payments to
// outputPath. The requisition must carry its relational slices.
func (w *WorkbookRenderer) Render(req *models.Requisition, outputPath string) error {
	w.logger.Info("Rendering requisition workbook",
		zap.String("requisition_id", req.ID),
		zap.String("output_path", outputPath))

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	w.setCell(f, sheet, "A1", w.orgName)
	w.setCell(f, sheet, "A2", fmt.Sprintf("%s Requisition", req.Type))
	w.setCell(f, sheet, "A4", "Requisition No:")
	w.setCell(f, sheet, "B4", req.ID)
	w.setCell(f, sheet, "A5", "Department:")
	w.setCell(f, sheet, "B5", string(req.Department))
	w.setCell(f, sheet, "A6", "Requested By:")
	w.setCell(f, sheet, "B6", req.RequesterName)
	w.setCell(f, sheet, "A7", "Status:")
	w.setCell(f, sheet, "B7", string(req.Status))
	w.setCell(f, sheet, "A8", "Date:")
	w.setCell(f, sheet, "B8", req.CreatedAt.Format("2006-01-02"))

	row := 10
	if req.Type == models.TypeHistologyPayment {
		row = w.writeHistologyTable(f, sheet, row, req.HistologyItems)
	} else {
		row = w.writeItemTable(f, sheet, row, req.Items)
	}

	row++
	w.setCell(f, sheet, cell("A", row), "Total:")
	w.setCell(f, sheet, cell("B", row), fmt.Sprintf("NGN %.2f", req.TotalCost))
	row += 2

	if req.Signatures != nil {
		row = w.writeSignatures(f, sheet, row, req.Signatures)
	}
	if len(req.Log) > 0 {
		row = w.writeTrail(f, sheet, row, req.Log)
	}
	if len(req.Payments) > 0 {
		w.writePayments(f, sheet, row, req.Payments)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Workbook rendered", zap.String("output_path", outputPath))
	return nil
}

func (w *WorkbookRenderer) writeItemTable(f *excelize.File, sheet string, row int, items []*models.Item) int {
	headers := []string{"Item", "Qty", "Description", "Supplier", "Est. Unit Cost", "Unit Price"}
	for i, h := range headers {
		w.setCell(f, sheet, cell(column(i), row), h)
	}
	row++

	for _, it := range items {
		w.setCell(f, sheet, cell("A", row), it.Name)
		w.setCell(f, sheet, cell("B", row), fmt.Sprintf("%d", it.Quantity))
		w.setCell(f, sheet, cell("C", row), it.Description)
		w.setCell(f, sheet, cell("D", row), it.Supplier)
		w.setCell(f, sheet, cell("E", row), fmt.Sprintf("%.2f", it.EstimatedUnitCost))
		if it.UnitPrice > 0 {
			w.setCell(f, sheet, cell("F", row), fmt.Sprintf("%.2f", it.UnitPrice))
		}
		row++
	}
	return row
}

func (w *WorkbookRenderer) writeHistologyTable(f *excelize.File, sheet string, row int, items []*models.HistologyItem) int {
	headers := []string{"Service Date", "Patient", "Hospital No", "Lab No", "Receipt No", "Outsource Bills", "Internal Charge"}
	for i, h := range headers {
		w.setCell(f, sheet, cell(column(i), row), h)
	}
	row++

	for _, it := range items {
		w.setCell(f, sheet, cell("A", row), it.ServiceDate)
		w.setCell(f, sheet, cell("B", row), it.PatientName)
		w.setCell(f, sheet, cell("C", row), it.HospitalNo)
		w.setCell(f, sheet, cell("D", row), it.LabNo)
		w.setCell(f, sheet, cell("E", row), it.ReceiptNo)
		w.setCell(f, sheet, cell("F", row), fmt.Sprintf("%.2f", it.OutsourceBills))
		w.setCell(f, sheet, cell("G", row), fmt.Sprintf("%.2f", it.InternalCharge))
		row++
	}
	return row
}

func (w *WorkbookRenderer) writeSignatures(f *excelize.File, sheet string, row int, sigs *models.SignatureSet) int {
	w.setCell(f, sheet, cell("A", row), "Signatures")
	row++
	for _, entry := range []struct {
		label string
		sig   *models.Signature
	}{
		{"Prepared By", sigs.PreparedBy},
		{"Confirmed By", sigs.LevelConfirmedBy},
		{"Checked By", sigs.CheckedBy},
	} {
		if entry.sig == nil {
			continue
		}
		w.setCell(f, sheet, cell("A", row), entry.label)
		w.setCell(f, sheet, cell("B", row), entry.sig.Name)
		w.setCell(f, sheet, cell("C", row), entry.sig.Timestamp.Format("2006-01-02"))
		row++
	}
	return row + 1
}

func (w *WorkbookRenderer) writeTrail(f *excelize.File, sheet string, row int, logs []*models.ApprovalLog) int {
	w.setCell(f, sheet, cell("A", row), "Approval Trail")
	row++
	for _, l := range logs {
		w.setCell(f, sheet, cell("A", row), l.CreatedAt.Format("2006-01-02 15:04"))
		w.setCell(f, sheet, cell("B", row), string(l.Action))
		w.setCell(f, sheet, cell("C", row), l.UserName)
		w.setCell(f, sheet, cell("D", row), l.Comment)
		row++
	}
	return row + 1
}

func (w *WorkbookRenderer) writePayments(f *excelize.File, sheet string, row int, payments []*models.Payment) int {
	w.setCell(f, sheet, cell("A", row), "Payments")
	row++
	for _, p := range payments {
		w.setCell(f, sheet, cell("A", row), p.Date)
		w.setCell(f, sheet, cell("B", row), fmt.Sprintf("NGN %.2f", p.Amount))
		w.setCell(f, sheet, cell("C", row), p.RecordedByName)
		row++
	}
	return row
}

func (w *WorkbookRenderer) setCell(f *excelize.File, sheet, cellRef, value string) {
	if err := f.SetCellValue(sheet, cellRef, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cellRef),
			zap.Error(err))
	}
}

func cell(col string, row int) string { return fmt.Sprintf("%s%d", col, row) }

func column(i int) string { return string(rune('A' + i)) }
