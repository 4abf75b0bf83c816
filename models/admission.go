package models

import "time"

// Admission statuses
const (
	AdmissionPending  = "pending"
	AdmissionApproved = "approved"
	AdmissionRejected = "rejected"
)

// Admission is a student's application to a course. A user may hold at most
// one admission per course; approval and roll numbers are driven by payment
// verification.
type Admission struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id"`
	CourseID       int       `json:"course_id"`
	Session        string    `json:"session"`
	FatherName     string    `json:"father_name"`
	MotherName     string    `json:"mother_name"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	Gender         string    `json:"gender"`
	Religion       string    `json:"religion"`
	MaritalStatus  string    `json:"marital_status"`
	NidOrBirthCert string    `json:"nid_or_birth_cert"`
	PresentAddress string    `json:"present_address"`
	GuardianPhone  string    `json:"guardian_phone"`
	PhotoURL       string    `json:"photo_url"`
	SignatureURL   string    `json:"signature_url"`
	RollNo         string    `json:"roll_no,omitempty"`
	Status         string    `json:"status"`
	PaymentID      *int      `json:"payment_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AdmissionDetail joins an admission with its course and payment summaries
// for listings and the student dashboard.
type AdmissionDetail struct {
	Admission
	CourseTitle    string   `json:"course_title"`
	CourseFee      float64  `json:"course_fee"`
	CourseDuration string   `json:"course_duration"`
	StudentName    string   `json:"student_name,omitempty"`
	StudentCode    string   `json:"student_code,omitempty"`
	StudentEmail   string   `json:"student_email,omitempty"`
	PaymentStatus  string   `json:"payment_status,omitempty"`
	PaymentTotal   *float64 `json:"payment_total,omitempty"`
	ReceiptNo      string   `json:"receipt_no,omitempty"`
}
