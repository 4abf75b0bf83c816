package models

import "time"

// Payment source types. A payment settles against exactly one source entity.
const (
	SourceAdmission = "admission"
	SourceCourse    = "course"
	SourceProduct   = "product"
)

// Payment methods accepted by the platform
const (
	MethodBkash   = "bkash"
	MethodNagad   = "nagad"
	MethodRocket  = "rocket"
	MethodOffline = "offline"
)

// Payment statuses. Pending is the only non-terminal state.
const (
	PaymentPending  = "pending"
	PaymentVerified = "verified"
	PaymentRejected = "rejected"
)

// Transaction fee surcharges. Offline settlement of an admission fee is
// collected in person and carries the lower surcharge.
const (
	FeeStandard         = 30.0
	FeeOfflineAdmission = 20.0
)

// Payment records one settlement attempt. Amount, transaction fee and total
// are snapshots taken at creation and never re-read from the source.
type Payment struct {
	ID             int        `json:"id"`
	UserID         int        `json:"user_id"`
	SourceType     string     `json:"source_type"`
	SourceID       int        `json:"source_id"`
	Amount         float64    `json:"amount"`
	TransactionFee float64    `json:"transaction_fee"`
	TotalAmount    float64    `json:"total_amount"`
	PaymentMethod  string     `json:"payment_method"`
	SenderMobile   string     `json:"sender_mobile"`
	TransactionID  string     `json:"transaction_id"`
	Status         string     `json:"status"`
	ReceiptNo      string     `json:"receipt_no,omitempty"`
	VerifiedBy     *int       `json:"verified_by,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsActive reports whether the payment blocks a resubmission for its source.
func (p *Payment) IsActive() bool {
	return p.Status == PaymentPending || p.Status == PaymentVerified
}

// SourceDetails is the live projection of the referenced source entity,
// resolved at read time for admin listings. Unlike the money fields on
// Payment it reflects the current state of the source.
type SourceDetails struct {
	Title    string  `json:"title"`
	Fee      float64 `json:"fee,omitempty"`
	Duration string  `json:"duration,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Type     string  `json:"type,omitempty"`
}

// EnrichedPayment decorates a payment with payer identity and source details
type EnrichedPayment struct {
	Payment
	UserName      string         `json:"user_name"`
	UserStudentID string         `json:"user_student_id"`
	SourceDetails *SourceDetails `json:"source_details,omitempty"`
}

// PurchasedProduct is one entry in a student's verified downloads listing
type PurchasedProduct struct {
	PaymentID    int        `json:"payment_id"`
	ProductID    int        `json:"product_id"`
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	ThumbnailURL string     `json:"thumbnail_url"`
	ReceiptNo    string     `json:"receipt_no"`
	TotalAmount  float64    `json:"total_amount"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}
