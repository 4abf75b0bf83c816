package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lib/pq"

	"tctc-backend/db"
	"tctc-backend/http/middleware"
	"tctc-backend/http/response"
	"tctc-backend/logger"
	"tctc-backend/models"
	"tctc-backend/services"
	"tctc-backend/utils"
)

const admissionColumns = `id, user_id, course_id, session, father_name, mother_name,
	date_of_birth, gender, religion, marital_status, nid_or_birth_cert,
	present_address, guardian_phone, photo_url, signature_url, roll_no, status,
	payment_id, created_at, updated_at`

func scanAdmission(row interface{ Scan(...interface{}) error }) (models.Admission, error) {
	var a models.Admission
	var rollNo sql.NullString
	err := row.Scan(&a.ID, &a.UserID, &a.CourseID, &a.Session, &a.FatherName, &a.MotherName,
		&a.DateOfBirth, &a.Gender, &a.Religion, &a.MaritalStatus, &a.NidOrBirthCert,
		&a.PresentAddress, &a.GuardianPhone, &a.PhotoURL, &a.SignatureURL, &rollNo, &a.Status,
		&a.PaymentID, &a.CreatedAt, &a.UpdatedAt)
	a.RollNo = rollNo.String
	return a, err
}

// ApplyForAdmission files a course application for the acting student
func ApplyForAdmission(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req struct {
		CourseID       int    `json:"course_id" validate:"required"`
		Session        string `json:"session" validate:"required"`
		FatherName     string `json:"father_name" validate:"required"`
		MotherName     string `json:"mother_name" validate:"required"`
		DateOfBirth    string `json:"date_of_birth" validate:"required"`
		Gender         string `json:"gender" validate:"required,oneof=Male Female Other"`
		Religion       string `json:"religion"`
		MaritalStatus  string `json:"marital_status"`
		NidOrBirthCert string `json:"nid_or_birth_cert" validate:"required"`
		PresentAddress string `json:"present_address" validate:"required"`
		GuardianPhone  string `json:"guardian_phone" validate:"required"`
		PhotoURL       string `json:"photo_url" validate:"required"`
		SignatureURL   string `json:"signature_url"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid date of birth, expected YYYY-MM-DD")
		return
	}

	var courseTitle string
	err = db.DB.QueryRowContext(r.Context(),
		`SELECT title FROM courses WHERE id = $1 AND is_active = TRUE`, req.CourseID).
		Scan(&courseTitle)
	if err == sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error checking course")
		return
	}

	admission, err := scanAdmission(db.DB.QueryRowContext(r.Context(),
		`INSERT INTO admissions (user_id, course_id, session, father_name, mother_name,
			date_of_birth, gender, religion, marital_status, nid_or_birth_cert,
			present_address, guardian_phone, photo_url, signature_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+admissionColumns,
		user.ID, req.CourseID, req.Session, req.FatherName, req.MotherName,
		dob, req.Gender, req.Religion, req.MaritalStatus, req.NidOrBirthCert,
		req.PresentAddress, req.GuardianPhone, req.PhotoURL, req.SignatureURL))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			response.ErrorResponse(w, http.StatusConflict, "You have already applied for this course")
			return
		}
		response.ErrorResponse(w, http.StatusInternalServerError, "Error saving application")
		return
	}

	// Keep the profile photo in sync with the application photo
	if _, err := db.DB.ExecContext(r.Context(),
		`UPDATE users SET avatar = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		req.PhotoURL, user.ID); err != nil {
		logger.Warn("Could not sync avatar for user %d: %v", user.ID, err)
	}

	go notifyAdminsOfApplication(user, courseTitle, admission)

	response.SuccessResponse(w, http.StatusCreated, "Application submitted", admission)
}

func notifyAdminsOfApplication(user *models.User, courseTitle string, admission models.Admission) {
	rows, err := db.DB.Query(`SELECT email FROM users WHERE role = 'admin'`)
	if err != nil {
		logger.Warn("Could not load admin emails: %v", err)
		return
	}
	defer rows.Close()

	body := services.AdmissionSubmittedEmail(user.Name, user.StudentID, courseTitle,
		admission.Session, admission.GuardianPhone)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			continue
		}
		if err := services.SendEmail(email, "New Admission Application", body); err != nil {
			logger.Warn("Admission notification to %s failed: %v", email, err)
		}
	}
}

// GetMyAdmissions lists the caller's applications with course details
func GetMyAdmissions(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	rows, err := db.DB.QueryContext(r.Context(),
		`SELECT a.id, a.user_id, a.course_id, a.session, a.father_name, a.mother_name,
			a.date_of_birth, a.gender, a.religion, a.marital_status, a.nid_or_birth_cert,
			a.present_address, a.guardian_phone, a.photo_url, a.signature_url, a.roll_no,
			a.status, a.payment_id, a.created_at, a.updated_at,
			c.title, c.fee, c.duration,
			p.status, p.total_amount, p.receipt_no
		FROM admissions a
		JOIN courses c ON c.id = a.course_id
		LEFT JOIN payments p ON p.id = a.payment_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC`, user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching admissions")
		return
	}
	defer rows.Close()

	admissions, err := collectAdmissionDetails(rows)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing admissions")
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d admissions", len(admissions)), admissions)
}

// GetAllAdmissions lists every application with student and payment summaries (admin)
func GetAllAdmissions(w http.ResponseWriter, r *http.Request) {
	rows, err := db.DB.QueryContext(r.Context(),
		`SELECT a.id, a.user_id, a.course_id, a.session, a.father_name, a.mother_name,
			a.date_of_birth, a.gender, a.religion, a.marital_status, a.nid_or_birth_cert,
			a.present_address, a.guardian_phone, a.photo_url, a.signature_url, a.roll_no,
			a.status, a.payment_id, a.created_at, a.updated_at,
			c.title, c.fee, c.duration,
			p.status, p.total_amount, p.receipt_no,
			u.name, u.student_id, u.email
		FROM admissions a
		JOIN courses c ON c.id = a.course_id
		JOIN users u ON u.id = a.user_id
		LEFT JOIN payments p ON p.id = a.payment_id
		ORDER BY a.created_at DESC`)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching admissions")
		return
	}
	defer rows.Close()

	admissions := []models.AdmissionDetail{}
	for rows.Next() {
		d, err := scanAdmissionDetail(rows, true)
		if err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing admissions")
			return
		}
		admissions = append(admissions, d)
	}
	if err := rows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing admissions")
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d admissions", len(admissions)), admissions)
}

// GetAdmissionByID returns one application; students may only see their own
func GetAdmissionByID(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	admissionID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid admission ID")
		return
	}

	row := db.DB.QueryRowContext(r.Context(),
		`SELECT a.id, a.user_id, a.course_id, a.session, a.father_name, a.mother_name,
			a.date_of_birth, a.gender, a.religion, a.marital_status, a.nid_or_birth_cert,
			a.present_address, a.guardian_phone, a.photo_url, a.signature_url, a.roll_no,
			a.status, a.payment_id, a.created_at, a.updated_at,
			c.title, c.fee, c.duration,
			p.status, p.total_amount, p.receipt_no
		FROM admissions a
		JOIN courses c ON c.id = a.course_id
		LEFT JOIN payments p ON p.id = a.payment_id
		WHERE a.id = $1`, admissionID)

	detail, err := scanAdmissionDetail(row, false)
	if err == sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusNotFound, "Admission not found")
		return
	}
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching admission")
		return
	}

	if !user.IsAdmin() && detail.UserID != user.ID {
		response.ErrorResponse(w, http.StatusForbidden, "Not authorized to view this admission")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Admission retrieved", detail)
}

func collectAdmissionDetails(rows *sql.Rows) ([]models.AdmissionDetail, error) {
	admissions := []models.AdmissionDetail{}
	for rows.Next() {
		d, err := scanAdmissionDetail(rows, false)
		if err != nil {
			return nil, err
		}
		admissions = append(admissions, d)
	}
	return admissions, rows.Err()
}

func scanAdmissionDetail(row interface{ Scan(...interface{}) error }, withStudent bool) (models.AdmissionDetail, error) {
	var d models.AdmissionDetail
	var rollNo, payStatus, receiptNo sql.NullString
	var payTotal sql.NullFloat64

	dest := []interface{}{
		&d.ID, &d.UserID, &d.CourseID, &d.Session, &d.FatherName, &d.MotherName,
		&d.DateOfBirth, &d.Gender, &d.Religion, &d.MaritalStatus, &d.NidOrBirthCert,
		&d.PresentAddress, &d.GuardianPhone, &d.PhotoURL, &d.SignatureURL, &rollNo,
		&d.Status, &d.PaymentID, &d.CreatedAt, &d.UpdatedAt,
		&d.CourseTitle, &d.CourseFee, &d.CourseDuration,
		&payStatus, &payTotal, &receiptNo,
	}
	if withStudent {
		dest = append(dest, &d.StudentName, &d.StudentCode, &d.StudentEmail)
	}
	if err := row.Scan(dest...); err != nil {
		return d, err
	}

	d.RollNo = rollNo.String
	d.PaymentStatus = payStatus.String
	d.ReceiptNo = receiptNo.String
	if payTotal.Valid {
		d.PaymentTotal = &payTotal.Float64
	}
	return d, nil
}
