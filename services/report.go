package services

import (
	"bytes"
	"fmt"
	"time"

	"tctc-backend/models"

	"github.com/xuri/excelize/v2"
)

// BuildPaymentsReport renders the payment ledger as an XLSX workbook for the
// admin export endpoint.
func BuildPaymentsReport(payments []models.EnrichedPayment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payments"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Student", "Student ID", "Source Type", "Source",
		"Amount", "Fee", "Total", "Method", "TrxID", "Status", "Receipt No", "Submitted At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, p := range payments {
		sourceName := ""
		if p.SourceDetails != nil {
			sourceName = p.SourceDetails.Title
		}
		values := []interface{}{
			p.ID, p.UserName, p.UserStudentID, p.SourceType, sourceName,
			p.Amount, p.TransactionFee, p.TotalAmount, p.PaymentMethod,
			p.TransactionID, p.Status, p.ReceiptNo,
			p.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing payments report: %w", err)
	}
	return buf.Bytes(), nil
}
