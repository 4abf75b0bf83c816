package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"tctc-backend/db"
	"tctc-backend/http/middleware"
	"tctc-backend/http/response"
	"tctc-backend/models"
	"tctc-backend/services"
)

// GetStudentDashboard bundles the caller's admissions, payments and purchases
// into one payload for the profile page.
func GetStudentDashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	ctx := r.Context()

	admissionRows, err := db.DB.QueryContext(ctx,
		`SELECT a.id, a.course_id, c.title, a.session, a.roll_no, a.status, a.created_at,
			p.status, p.receipt_no
		FROM admissions a
		JOIN courses c ON c.id = a.course_id
		LEFT JOIN payments p ON p.id = a.payment_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC`, user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching dashboard")
		return
	}
	defer admissionRows.Close()

	type admissionSummary struct {
		ID            int    `json:"id"`
		CourseID      int    `json:"course_id"`
		CourseTitle   string `json:"course_title"`
		Session       string `json:"session"`
		RollNo        string `json:"roll_no,omitempty"`
		Status        string `json:"status"`
		CreatedAt     string `json:"created_at"`
		PaymentStatus string `json:"payment_status,omitempty"`
		ReceiptNo     string `json:"receipt_no,omitempty"`
	}

	admissions := []admissionSummary{}
	for admissionRows.Next() {
		var a admissionSummary
		var createdAt sql.NullTime
		var rollNo, payStatus, receiptNo sql.NullString
		if err := admissionRows.Scan(&a.ID, &a.CourseID, &a.CourseTitle, &a.Session,
			&rollNo, &a.Status, &createdAt, &payStatus, &receiptNo); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing dashboard")
			return
		}
		a.RollNo = rollNo.String
		a.PaymentStatus = payStatus.String
		a.ReceiptNo = receiptNo.String
		if createdAt.Valid {
			a.CreatedAt = createdAt.Time.Format("2006-01-02")
		}
		admissions = append(admissions, a)
	}
	if err := admissionRows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing dashboard")
		return
	}

	paymentRows, err := db.DB.QueryContext(ctx,
		`SELECT id, source_type, source_id, amount, transaction_fee, total_amount,
			payment_method, sender_mobile, transaction_ref, status, receipt_no,
			verified_by, verified_at, created_at, updated_at, user_id
		FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching dashboard")
		return
	}
	defer paymentRows.Close()

	payments := []models.Payment{}
	for paymentRows.Next() {
		var p models.Payment
		var receiptNo sql.NullString
		if err := paymentRows.Scan(&p.ID, &p.SourceType, &p.SourceID, &p.Amount,
			&p.TransactionFee, &p.TotalAmount, &p.PaymentMethod, &p.SenderMobile,
			&p.TransactionID, &p.Status, &receiptNo, &p.VerifiedBy, &p.VerifiedAt,
			&p.CreatedAt, &p.UpdatedAt, &p.UserID); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing dashboard")
			return
		}
		p.ReceiptNo = receiptNo.String
		payments = append(payments, p)
	}
	if err := paymentRows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing dashboard")
		return
	}

	purchases, err := paymentService.MyDownloads(ctx, user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching dashboard")
		return
	}

	// Live classes are only visible once the admission is approved
	classRows, err := db.DB.QueryContext(ctx,
		`SELECT oc.id, oc.course_id, oc.title, oc.meeting_link, oc.scheduled_at,
			oc.is_active, oc.created_at, oc.updated_at
		FROM online_classes oc
		JOIN admissions a ON a.course_id = oc.course_id
		WHERE a.user_id = $1 AND a.status = 'approved' AND oc.is_active = TRUE
		ORDER BY oc.scheduled_at ASC NULLS LAST`, user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching dashboard")
		return
	}
	defer classRows.Close()

	classes := []models.OnlineClass{}
	for classRows.Next() {
		var c models.OnlineClass
		if err := classRows.Scan(&c.ID, &c.CourseID, &c.Title, &c.MeetingLink, &c.ScheduledAt,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing dashboard")
			return
		}
		classes = append(classes, c)
	}
	if err := classRows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing dashboard")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Dashboard retrieved", map[string]interface{}{
		"profile":    user.ToResponse(),
		"admissions": admissions,
		"payments":   payments,
		"downloads":  purchases,
		"classes":    classes,
	})
}

// GetReceipt returns the receipt payload for a verified payment. Students may
// only fetch their own receipts.
func GetReceipt(w http.ResponseWriter, r *http.Request) {
	data, err := loadReceiptData(w, r)
	if err != nil {
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Receipt retrieved", map[string]interface{}{
		"payment":   data.Payment,
		"item_name": data.ItemName,
		"item_type": data.ItemType,
		"roll_no":   data.RollNo,
		"student":   data.User.ToResponse(),
	})
}

// DownloadReceiptPDF streams the receipt as a PDF attachment
func DownloadReceiptPDF(w http.ResponseWriter, r *http.Request) {
	data, err := loadReceiptData(w, r)
	if err != nil {
		return
	}

	pdfBytes, err := services.GenerateReceiptPDF(*data)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error generating receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", data.Payment.ReceiptNo+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

// loadReceiptData fetches and authorizes the receipt for the payment in the
// path. On failure it writes the error response and returns a non-nil error.
func loadReceiptData(w http.ResponseWriter, r *http.Request) (*services.ReceiptData, error) {
	user := middleware.CurrentUser(r)

	paymentID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid payment ID")
		return nil, err
	}

	payment, err := paymentService.Get(r.Context(), paymentID)
	if err != nil {
		response.Error(w, err)
		return nil, err
	}

	if !user.IsAdmin() && payment.UserID != user.ID {
		response.ErrorResponse(w, http.StatusForbidden, "Not authorized to view this receipt")
		return nil, fmt.Errorf("forbidden")
	}
	if payment.Status != models.PaymentVerified {
		response.ErrorResponse(w, http.StatusBadRequest, "Receipt is only available for verified payments")
		return nil, fmt.Errorf("not verified")
	}

	payer := user
	if payment.UserID != user.ID {
		payer = &models.User{}
		err := db.DB.QueryRowContext(r.Context(),
			`SELECT id, name, student_id, email FROM users WHERE id = $1`, payment.UserID).
			Scan(&payer.ID, &payer.Name, &payer.StudentID, &payer.Email)
		if err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching payer")
			return nil, err
		}
	}

	data := &services.ReceiptData{Payment: payment, User: payer}

	switch payment.SourceType {
	case models.SourceAdmission:
		data.ItemType = "Course Admission"
		err = db.DB.QueryRowContext(r.Context(),
			`SELECT c.title, a.roll_no FROM admissions a
			JOIN courses c ON c.id = a.course_id
			WHERE a.id = $1`, payment.SourceID).
			Scan(&data.ItemName, &data.RollNo)
	case models.SourceCourse:
		data.ItemType = "Course"
		err = db.DB.QueryRowContext(r.Context(),
			`SELECT title FROM courses WHERE id = $1`, payment.SourceID).
			Scan(&data.ItemName)
	case models.SourceProduct:
		data.ItemType = "Product"
		err = db.DB.QueryRowContext(r.Context(),
			`SELECT title FROM products WHERE id = $1`, payment.SourceID).
			Scan(&data.ItemName)
	}
	if err != nil && err != sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching receipt details")
		return nil, err
	}

	return data, nil
}

// GetAdminStats reports platform totals for the admin dashboard
func GetAdminStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats := struct {
		TotalStudents     int     `json:"total_students"`
		TotalCourses      int     `json:"total_courses"`
		TotalAdmissions   int     `json:"total_admissions"`
		PendingPayments   int     `json:"pending_payments"`
		VerifiedPayments  int     `json:"verified_payments"`
		CollectedTotal    float64 `json:"collected_total"`
		ProductsSold      int     `json:"products_sold"`
		ActiveProducts    int     `json:"active_products"`
		ApprovedAdmission int     `json:"approved_admissions"`
	}{}

	queries := []struct {
		dest interface{}
		stmt string
	}{
		{&stats.TotalStudents, `SELECT COUNT(*) FROM users WHERE role = 'student'`},
		{&stats.TotalCourses, `SELECT COUNT(*) FROM courses WHERE is_active = TRUE`},
		{&stats.TotalAdmissions, `SELECT COUNT(*) FROM admissions`},
		{&stats.ApprovedAdmission, `SELECT COUNT(*) FROM admissions WHERE status = 'approved'`},
		{&stats.PendingPayments, `SELECT COUNT(*) FROM payments WHERE status = 'pending'`},
		{&stats.VerifiedPayments, `SELECT COUNT(*) FROM payments WHERE status = 'verified'`},
		{&stats.CollectedTotal, `SELECT COALESCE(SUM(total_amount), 0) FROM payments WHERE status = 'verified'`},
		{&stats.ProductsSold, `SELECT COUNT(*) FROM payments WHERE status = 'verified' AND source_type = 'product'`},
		{&stats.ActiveProducts, `SELECT COUNT(*) FROM products WHERE is_active = TRUE`},
	}

	for _, q := range queries {
		if err := db.DB.QueryRowContext(ctx, q.stmt).Scan(q.dest); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error computing stats")
			return
		}
	}

	recent, err := recentPayments(ctx, 5)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error computing stats")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Stats retrieved", map[string]interface{}{
		"totals":          stats,
		"recent_payments": recent,
	})
}

func recentPayments(ctx context.Context, limit int) ([]models.EnrichedPayment, error) {
	rows, err := db.DB.QueryContext(ctx,
		`SELECT p.id, p.source_type, p.source_id, p.total_amount, p.payment_method,
			p.status, p.receipt_no, p.created_at, u.name, u.student_id
		FROM payments p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := []models.EnrichedPayment{}
	for rows.Next() {
		var p models.EnrichedPayment
		var receiptNo sql.NullString
		if err := rows.Scan(&p.ID, &p.SourceType, &p.SourceID, &p.TotalAmount,
			&p.PaymentMethod, &p.Status, &receiptNo, &p.CreatedAt,
			&p.UserName, &p.UserStudentID); err != nil {
			return nil, err
		}
		p.ReceiptNo = receiptNo.String
		recent = append(recent, p)
	}
	return recent, rows.Err()
}
