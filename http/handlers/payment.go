package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tctc-backend/db"
	"tctc-backend/http/middleware"
	"tctc-backend/http/response"
	"tctc-backend/models"
	"tctc-backend/services"
	"tctc-backend/utils"
)

var paymentService = services.NewPaymentService()

// CreatePayment records a student's payment attestation against a source
// (admission, course or product).
func CreatePayment(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req struct {
		SourceType    string  `json:"source_type"`
		SourceID      int     `json:"source_id"`
		AdmissionID   int     `json:"admission_id"`
		PaymentMethod string  `json:"payment_method" validate:"required"`
		SenderMobile  string  `json:"sender_mobile"`
		TransactionID string  `json:"transaction_id"`
		Amount        float64 `json:"amount"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	// Older clients send admission_id without a source_type
	sourceID := req.SourceID
	if sourceID == 0 {
		sourceID = req.AdmissionID
	}

	payment, err := paymentService.Submit(r.Context(), user, services.SubmitPaymentInput{
		SourceType:    req.SourceType,
		SourceID:      sourceID,
		PaymentMethod: req.PaymentMethod,
		SenderMobile:  req.SenderMobile,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusCreated, "Payment submitted", payment)
}

// GetAllPayments lists every payment with live source details (admin)
func GetAllPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := paymentService.List(r.Context())
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching payments")
		return
	}
	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d payments", len(payments)), payments)
}

// VerifyPayment settles a pending payment and issues its receipt (admin)
func VerifyPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	result, err := paymentService.Verify(r.Context(), paymentID, middleware.CurrentUser(r))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Verified", result)
}

// RejectPayment marks a pending payment rejected (admin)
func RejectPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	if err := paymentService.Reject(r.Context(), paymentID); err != nil {
		response.Error(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Payment rejected", nil)
}

// DeletePayment removes a payment record (admin housekeeping)
func DeletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	if err := paymentService.Delete(r.Context(), paymentID); err != nil {
		response.Error(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Payment record removed", nil)
}

// GetMyDownloads lists the caller's verified product purchases
func GetMyDownloads(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	purchases, err := paymentService.MyDownloads(r.Context(), user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching downloads")
		return
	}
	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d purchases", len(purchases)), purchases)
}

// ExportPayments streams the ledger as an XLSX workbook (admin)
func ExportPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := paymentService.List(r.Context())
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching payments")
		return
	}

	report, err := services.BuildPaymentsReport(payments)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error building report")
		return
	}

	filename := fmt.Sprintf("payments-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(report)
}

// GetPaymentChannels lists the active collection numbers (public)
func GetPaymentChannels(w http.ResponseWriter, r *http.Request) {
	rows, err := db.DB.QueryContext(r.Context(),
		`SELECT id, method_name, number, account_type, is_active, created_at, updated_at
		FROM payment_channels WHERE is_active = TRUE ORDER BY id ASC`)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching payment methods")
		return
	}
	defer rows.Close()

	channels := []models.PaymentChannel{}
	for rows.Next() {
		var c models.PaymentChannel
		if err := rows.Scan(&c.ID, &c.MethodName, &c.Number, &c.AccountType, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing payment methods")
			return
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing payment methods")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Payment methods retrieved", channels)
}

// AddPaymentChannel registers a new collection number (admin)
func AddPaymentChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MethodName  string `json:"method_name" validate:"required"`
		Number      string `json:"number" validate:"required"`
		AccountType string `json:"account_type"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountType == "" {
		req.AccountType = "Personal"
	}

	var channel models.PaymentChannel
	err := db.DB.QueryRowContext(r.Context(),
		`INSERT INTO payment_channels (method_name, number, account_type)
		VALUES ($1, $2, $3)
		RETURNING id, method_name, number, account_type, is_active, created_at, updated_at`,
		req.MethodName, req.Number, req.AccountType).
		Scan(&channel.ID, &channel.MethodName, &channel.Number, &channel.AccountType,
			&channel.IsActive, &channel.CreatedAt, &channel.UpdatedAt)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error saving payment method")
		return
	}

	response.SuccessResponse(w, http.StatusCreated, "Payment method added", channel)
}

// DeletePaymentChannel removes a collection number (admin)
func DeletePaymentChannel(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid method ID")
		return
	}

	result, err := db.DB.ExecContext(r.Context(), `DELETE FROM payment_channels WHERE id = $1`, channelID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error deleting payment method")
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		response.ErrorResponse(w, http.StatusNotFound, "Method not found")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Payment method removed", nil)
}
