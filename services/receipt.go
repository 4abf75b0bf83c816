package services

import (
	"bytes"
	"fmt"
	"time"

	"tctc-backend/models"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptData bundles everything printed on a payment receipt
type ReceiptData struct {
	Payment  *models.Payment
	User     *models.User
	ItemName string
	ItemType string
	RollNo   string
}

// GenerateReceiptPDF renders a verified payment as a downloadable PDF receipt.
func GenerateReceiptPDF(data ReceiptData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "Technical Training Center")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Receipt No: %s", data.Payment.ReceiptNo))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	if data.Payment.VerifiedAt != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Date: %s", data.Payment.VerifiedAt.Format("02 Jan 2006")))
	} else {
		pdf.Cell(0, 8, fmt.Sprintf("Date: %s", time.Now().Format("02 Jan 2006")))
	}
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "Student Details")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Name: %s", data.User.Name))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Student ID: %s", data.User.StudentID))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Email: %s", data.User.Email))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "Item")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("%s (%s)", data.ItemName, data.ItemType))
	pdf.Ln(7)
	if data.RollNo != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Roll No: %s", data.RollNo))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "Payment")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Method: %s", data.Payment.PaymentMethod))
	pdf.Ln(7)
	if data.Payment.TransactionID != "" {
		pdf.Cell(0, 7, fmt.Sprintf("TrxID: %s", data.Payment.TransactionID))
		pdf.Ln(7)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Amount: %.2f BDT", data.Payment.Amount))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Transaction Fee: %.2f BDT", data.Payment.TransactionFee))
	pdf.Ln(7)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %.2f BDT", data.Payment.TotalAmount))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}
