package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tctc-backend/errors"
	"tctc-backend/logger"
	"tctc-backend/models"
)

// PaymentStore is the storage surface the payment ledger needs. The SQL
// implementation lives in payment_store.go; tests substitute an in-memory one.
type PaymentStore interface {
	GetCourse(ctx context.Context, id int) (*models.Course, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	GetAdmission(ctx context.Context, id int) (*models.Admission, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	AdminEmails(ctx context.Context) ([]string, error)

	GetPayment(ctx context.Context, id int) (*models.Payment, error)
	HasActivePayment(ctx context.Context, userID int, sourceType string, sourceID int) (bool, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
	SetAdmissionPayment(ctx context.Context, admissionID, paymentID int) error

	// ClaimVerification flips a pending payment to verified, draws the
	// next number from receiptScope and stamps the receipt built by
	// format, all atomically. A payment is never left verified without a
	// receipt: on failure nothing commits and the payment stays pending.
	// Reports whether this caller won the transition.
	ClaimVerification(ctx context.Context, paymentID, adminID int, at time.Time,
		receiptScope string, format func(int64) string) (string, bool, error)
	ApproveAdmission(ctx context.Context, admissionID int, rollNo string) error
	MarkRejected(ctx context.Context, paymentID int) (bool, error)
	DeletePayment(ctx context.Context, paymentID int) (bool, error)

	// NextSequence atomically increments and returns the counter for scope.
	NextSequence(ctx context.Context, scope string) (int64, error)

	ListPayments(ctx context.Context) ([]models.EnrichedPayment, error)
	ListVerifiedProductPurchases(ctx context.Context, userID int) ([]models.PurchasedProduct, error)
}

// PaymentService implements the payment settlement workflow: submission,
// verification, rejection and listing enrichment.
type PaymentService struct {
	store PaymentStore

	// Side-effect hooks, overridable in tests. Both are best-effort and
	// must never fail the enclosing request.
	sendMail func(to, subject, body string) error
	publish  func(topic, key string, value interface{}) error
	now      func() time.Time
}

// NewPaymentService wires the service against the SQL store and the default
// email/event plumbing.
func NewPaymentService() *PaymentService {
	return &PaymentService{
		store:    &SQLPaymentStore{},
		sendMail: SendEmail,
		publish:  Publish,
		now:      time.Now,
	}
}

// NewPaymentServiceWith builds a service over an explicit store, used by tests.
func NewPaymentServiceWith(store PaymentStore, sendMail func(to, subject, body string) error) *PaymentService {
	if sendMail == nil {
		sendMail = func(string, string, string) error { return nil }
	}
	return &PaymentService{
		store:    store,
		sendMail: sendMail,
		publish:  func(string, string, interface{}) error { return nil },
		now:      time.Now,
	}
}

var allowedMethods = map[string]bool{
	models.MethodBkash:   true,
	models.MethodNagad:   true,
	models.MethodRocket:  true,
	models.MethodOffline: true,
}

// SourceInfo is the uniform resolution result for any purchasable source
type SourceInfo struct {
	Amount      float64
	DisplayName string
}

// ResolveSource validates that the referenced source exists and is eligible,
// and returns its price and display name.
func (s *PaymentService) ResolveSource(ctx context.Context, sourceType string, sourceID int) (*SourceInfo, error) {
	switch sourceType {
	case models.SourceAdmission:
		admission, err := s.store.GetAdmission(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		if admission == nil {
			return nil, errors.NewNotFoundError("Admission not found")
		}
		course, err := s.store.GetCourse(ctx, admission.CourseID)
		if err != nil {
			return nil, err
		}
		if course == nil {
			return nil, errors.NewNotFoundError("Course not found")
		}
		return &SourceInfo{Amount: course.Fee, DisplayName: course.Title}, nil

	case models.SourceCourse:
		course, err := s.store.GetCourse(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		if course == nil {
			return nil, errors.NewNotFoundError("Course not found")
		}
		return &SourceInfo{Amount: course.Fee, DisplayName: course.Title}, nil

	case models.SourceProduct:
		product, err := s.store.GetProduct(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, errors.NewNotFoundError("Product not found")
		}
		return &SourceInfo{Amount: product.Price, DisplayName: product.Title}, nil

	default:
		return nil, errors.NewInvalidParamsError("Unsupported source type: " + sourceType)
	}
}

// SubmitPaymentInput carries a student's payment attestation
type SubmitPaymentInput struct {
	SourceType    string
	SourceID      int
	PaymentMethod string
	SenderMobile  string
	TransactionID string
	// Amount override, honored only for non-admission sources
	Amount float64
}

// Submit records a purchase intent as a pending payment. Validation order:
// method, source id, offline restriction, source resolution, duplicate guard.
func (s *PaymentService) Submit(ctx context.Context, user *models.User, in SubmitPaymentInput) (*models.Payment, error) {
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if !allowedMethods[method] {
		return nil, errors.NewInvalidParamsError("Invalid payment method selection")
	}

	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = models.SourceAdmission
	}
	if in.SourceID == 0 {
		return nil, errors.NewInvalidParamsError("Source ID is required")
	}

	// Offline settlement only happens at the front desk for admission fees
	if method == models.MethodOffline && sourceType != models.SourceAdmission {
		return nil, errors.NewInvalidParamsError("Offline payment is only available for admissions")
	}

	info, err := s.ResolveSource(ctx, sourceType, in.SourceID)
	if err != nil {
		return nil, err
	}

	amount := info.Amount
	if sourceType != models.SourceAdmission && in.Amount > 0 {
		amount = in.Amount
	}

	exists, err := s.store.HasActivePayment(ctx, user.ID, sourceType, in.SourceID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewConflictError("Payment already submitted or verified")
	}

	fee := models.FeeStandard
	if method == models.MethodOffline && sourceType == models.SourceAdmission {
		fee = models.FeeOfflineAdmission
	}

	payment := &models.Payment{
		UserID:         user.ID,
		SourceType:     sourceType,
		SourceID:       in.SourceID,
		Amount:         amount,
		TransactionFee: fee,
		TotalAmount:    amount + fee,
		PaymentMethod:  method,
		SenderMobile:   in.SenderMobile,
		TransactionID:  in.TransactionID,
		Status:         models.PaymentPending,
	}

	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	// Back-reference on the admission is best-effort; the payment stands
	// even if this update fails.
	if sourceType == models.SourceAdmission {
		if err := s.store.SetAdmissionPayment(ctx, in.SourceID, payment.ID); err != nil {
			logger.Warn("Failed to link payment %d to admission %d: %v", payment.ID, in.SourceID, err)
		}
	}

	s.notifyAdminsOfSubmission(user, payment, info.DisplayName)

	if err := s.publish("payments", fmt.Sprintf("user-%d", user.ID), map[string]interface{}{
		"event":       "payment.submitted",
		"payment_id":  payment.ID,
		"user_id":     user.ID,
		"source_type": sourceType,
		"source_id":   in.SourceID,
		"total":       payment.TotalAmount,
		"method":      method,
		"ts":          s.now().UTC().Format(time.RFC3339),
	}); err != nil {
		logger.Warn("Failed to publish payment.submitted event: %v", err)
	}

	return payment, nil
}

// VerifyResult reports the outcome of a successful verification
type VerifyResult struct {
	ReceiptNo string `json:"receipt_no"`
	RollNo    string `json:"roll_no,omitempty"`
}

// Verify settles a pending payment: issues a receipt number and, for
// admissions, approves the application with a roll number. After the status
// claim commits, downstream failures are logged but the verification stands.
func (s *PaymentService) Verify(ctx context.Context, paymentID int, admin *models.User) (*VerifyResult, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.NewNotFoundError("Payment not found")
	}
	if payment.Status == models.PaymentVerified {
		return nil, errors.NewConflictError("Payment already verified")
	}
	if payment.Status == models.PaymentRejected {
		return nil, errors.NewConflictError("Payment was rejected; ask the student to resubmit")
	}

	// The claim and the receipt issue commit together, so a failure here
	// leaves the payment pending and the verify retryable. Receipt numbers
	// start at 1001 within each year and never repeat.
	now := s.now()
	year := now.Year()
	receiptNo, claimed, err := s.store.ClaimVerification(ctx, paymentID, admin.ID, now,
		fmt.Sprintf("receipt:%d", year),
		func(n int64) string { return fmt.Sprintf("RCP-%d-%d", year, 1000+n) })
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the race; report what actually happened to the payment
		if current, err := s.store.GetPayment(ctx, paymentID); err == nil && current != nil &&
			current.Status == models.PaymentRejected {
			return nil, errors.NewConflictError("Payment was rejected; ask the student to resubmit")
		}
		return nil, errors.NewConflictError("Payment already verified")
	}

	result := &VerifyResult{ReceiptNo: receiptNo}
	itemName := "Service"

	if payment.SourceType == models.SourceAdmission {
		rollNo, name, err := s.approveAdmission(ctx, payment.SourceID, now)
		if err != nil {
			// The payment is already verified; approval is retried by
			// admin housekeeping, never rolled back.
			logger.Error("Payment %d verified but admission %d approval failed: %v",
				paymentID, payment.SourceID, err)
		} else {
			result.RollNo = rollNo
			itemName = name
		}
	} else {
		if info, err := s.ResolveSource(ctx, payment.SourceType, payment.SourceID); err == nil {
			itemName = info.DisplayName
		}
	}

	s.notifyPayerOfReceipt(ctx, payment, receiptNo, result.RollNo, itemName)

	if err := s.publish("payments", fmt.Sprintf("user-%d", payment.UserID), map[string]interface{}{
		"event":      "payment.verified",
		"payment_id": paymentID,
		"user_id":    payment.UserID,
		"receipt_no": receiptNo,
		"ts":         now.UTC().Format(time.RFC3339),
	}); err != nil {
		logger.Warn("Failed to publish payment.verified event: %v", err)
	}

	return result, nil
}

// approveAdmission flips the admission to approved and assigns its roll
// number from the per-course, per-year counter.
func (s *PaymentService) approveAdmission(ctx context.Context, admissionID int, at time.Time) (rollNo, courseTitle string, err error) {
	admission, err := s.store.GetAdmission(ctx, admissionID)
	if err != nil {
		return "", "", err
	}
	if admission == nil {
		return "", "", errors.NewNotFoundError("Admission not found")
	}

	yy := at.Format("06")
	serial, err := s.store.NextSequence(ctx, fmt.Sprintf("roll:%d:%s", admission.CourseID, yy))
	if err != nil {
		return "", "", err
	}
	rollNo = fmt.Sprintf("%s1%03d", yy, serial)

	if err := s.store.ApproveAdmission(ctx, admissionID, rollNo); err != nil {
		return "", "", err
	}

	if course, err := s.store.GetCourse(ctx, admission.CourseID); err == nil && course != nil {
		courseTitle = course.Title
	}
	return rollNo, courseTitle, nil
}

// Reject marks a pending payment rejected. Re-rejecting is harmless; a
// verified payment can no longer be rejected.
func (s *PaymentService) Reject(ctx context.Context, paymentID int) error {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return errors.NewNotFoundError("Payment not found")
	}
	if payment.Status == models.PaymentVerified {
		return errors.NewConflictError("Verified payments cannot be rejected")
	}

	if _, err := s.store.MarkRejected(ctx, paymentID); err != nil {
		return err
	}
	return nil
}

// Delete removes a payment record. Admin housekeeping only; not part of the
// settlement state machine.
func (s *PaymentService) Delete(ctx context.Context, paymentID int) error {
	deleted, err := s.store.DeletePayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.NewNotFoundError("Payment not found")
	}
	return nil
}

// List returns all payments enriched with a live projection of each source.
// Money fields stay frozen at submission values; the source details reflect
// whatever the source looks like right now.
func (s *PaymentService) List(ctx context.Context) ([]models.EnrichedPayment, error) {
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return nil, err
	}

	for i := range payments {
		details, err := s.sourceDetails(ctx, payments[i].SourceType, payments[i].SourceID)
		if err != nil {
			logger.Warn("Failed to resolve source details for payment %d: %v", payments[i].ID, err)
			continue
		}
		payments[i].SourceDetails = details
	}
	return payments, nil
}

func (s *PaymentService) sourceDetails(ctx context.Context, sourceType string, sourceID int) (*models.SourceDetails, error) {
	switch sourceType {
	case models.SourceAdmission:
		admission, err := s.store.GetAdmission(ctx, sourceID)
		if err != nil || admission == nil {
			return nil, err
		}
		course, err := s.store.GetCourse(ctx, admission.CourseID)
		if err != nil || course == nil {
			return nil, err
		}
		return &models.SourceDetails{Title: course.Title, Fee: course.Fee, Duration: course.Duration}, nil
	case models.SourceCourse:
		course, err := s.store.GetCourse(ctx, sourceID)
		if err != nil || course == nil {
			return nil, err
		}
		return &models.SourceDetails{Title: course.Title, Fee: course.Fee, Duration: course.Duration}, nil
	case models.SourceProduct:
		product, err := s.store.GetProduct(ctx, sourceID)
		if err != nil || product == nil {
			return nil, err
		}
		return &models.SourceDetails{Title: product.Title, Price: product.Price, Type: product.Type}, nil
	}
	return nil, nil
}

// MyDownloads lists the caller's verified product purchases
func (s *PaymentService) MyDownloads(ctx context.Context, userID int) ([]models.PurchasedProduct, error) {
	return s.store.ListVerifiedProductPurchases(ctx, userID)
}

// Get loads a single payment
func (s *PaymentService) Get(ctx context.Context, paymentID int) (*models.Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.NewNotFoundError("Payment not found")
	}
	return payment, nil
}

func (s *PaymentService) notifyAdminsOfSubmission(user *models.User, payment *models.Payment, itemName string) {
	go func() {
		admins, err := s.store.AdminEmails(context.Background())
		if err != nil {
			logger.Warn("Failed to load admin emails: %v", err)
			return
		}
		subject := fmt.Sprintf("New Payment Received: %s", payment.TransactionID)
		body := PaymentSubmittedEmail(user.Name, itemName, payment.TotalAmount, payment.PaymentMethod, payment.TransactionID)
		for _, to := range admins {
			if err := s.sendMail(to, subject, body); err != nil {
				logger.Warn("Failed to notify admin %s: %v", to, err)
			}
		}
	}()
}

func (s *PaymentService) notifyPayerOfReceipt(ctx context.Context, payment *models.Payment, receiptNo, rollNo, itemName string) {
	user, err := s.store.GetUser(ctx, payment.UserID)
	if err != nil || user == nil || user.Email == "" {
		return
	}
	go func() {
		subject := fmt.Sprintf("Payment Receipt - %s", receiptNo)
		body := PaymentVerifiedEmail(user.Name, receiptNo, itemName, rollNo, payment.TotalAmount)
		if err := s.sendMail(user.Email, subject, body); err != nil {
			logger.Warn("Failed to send receipt email to %s: %v", user.Email, err)
		}
	}()
}
