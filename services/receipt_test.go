package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tctc-backend/models"
)

func TestGenerateReceiptPDF(t *testing.T) {
	verifiedAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	data := ReceiptData{
		Payment: &models.Payment{
			ID:             1,
			ReceiptNo:      "RCP-2026-1001",
			PaymentMethod:  "bkash",
			TransactionID:  "TRX123",
			Amount:         5000,
			TransactionFee: 30,
			TotalAmount:    5030,
			VerifiedAt:     &verifiedAt,
		},
		User:     &models.User{Name: "Rahim Uddin", StudentID: "TCTC-20261001", Email: "rahim@example.com"},
		ItemName: "Welding 6 Months",
		ItemType: "Course Admission",
		RollNo:   "261001",
	}

	pdf, err := GenerateReceiptPDF(data)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output should be a PDF document")
}

func TestBuildPaymentsReport(t *testing.T) {
	verifiedAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	payments := []models.EnrichedPayment{
		{
			Payment: models.Payment{
				ID: 1, UserID: 1, SourceType: models.SourceAdmission, SourceID: 100,
				Amount: 5000, TransactionFee: 30, TotalAmount: 5030,
				PaymentMethod: "bkash", TransactionID: "TRX123",
				Status: models.PaymentVerified, ReceiptNo: "RCP-2026-1001",
				VerifiedAt: &verifiedAt, CreatedAt: verifiedAt,
			},
			UserName:      "Rahim Uddin",
			UserStudentID: "TCTC-20261001",
			SourceDetails: &models.SourceDetails{Title: "Welding 6 Months", Fee: 5000},
		},
		{
			Payment: models.Payment{
				ID: 2, UserID: 2, SourceType: models.SourceProduct, SourceID: 20,
				Amount: 750, TransactionFee: 30, TotalAmount: 780,
				PaymentMethod: "nagad", Status: models.PaymentPending, CreatedAt: verifiedAt,
			},
			UserName:      "Karim Mia",
			UserStudentID: "TCTC-20261002",
		},
	}

	report, err := BuildPaymentsReport(payments)
	require.NoError(t, err)
	require.NotEmpty(t, report)

	wb, err := excelize.OpenReader(bytes.NewReader(report))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Payments")
	require.NoError(t, err)
	// Header plus one row per payment
	require.Len(t, rows, 3)
	assert.Contains(t, rows[1], "RCP-2026-1001")
	assert.Contains(t, rows[2], "Karim Mia")
}
