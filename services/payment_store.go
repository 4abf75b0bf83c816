package services

import (
	"context"
	"database/sql"
	"time"

	"tctc-backend/db"
	"tctc-backend/errors"
	"tctc-backend/models"

	"github.com/lib/pq"
)

// SQLPaymentStore implements PaymentStore over the shared Postgres handle.
type SQLPaymentStore struct{}

const paymentColumns = `id, user_id, source_type, source_id, amount, transaction_fee,
	total_amount, payment_method, sender_mobile, transaction_ref, status, receipt_no,
	verified_by, verified_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.SourceType, &p.SourceID, &p.Amount,
		&p.TransactionFee, &p.TotalAmount, &p.PaymentMethod, &p.SenderMobile,
		&p.TransactionID, &p.Status, &p.ReceiptNo, &p.VerifiedBy, &p.VerifiedAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLPaymentStore) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	var c models.Course
	err := db.DB.QueryRowContext(ctx,
		`SELECT id, title, title_bn, description, description_bn, type, fee, duration,
			is_active, created_at, updated_at FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Title, &c.TitleBn, &c.Description, &c.DescriptionBn, &c.Type,
			&c.Fee, &c.Duration, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLPaymentStore) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	err := db.DB.QueryRowContext(ctx,
		`SELECT id, title, title_bn, type, logo_key, price, thumbnail_url, file_url,
			description, is_active, created_at, updated_at FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.TitleBn, &p.Type, &p.LogoKey, &p.Price, &p.ThumbnailURL,
			&p.FileURL, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLPaymentStore) GetAdmission(ctx context.Context, id int) (*models.Admission, error) {
	var a models.Admission
	err := db.DB.QueryRowContext(ctx,
		`SELECT id, user_id, course_id, session, father_name, mother_name, date_of_birth,
			gender, religion, marital_status, nid_or_birth_cert, present_address,
			guardian_phone, photo_url, signature_url, roll_no, status, payment_id,
			created_at, updated_at FROM admissions WHERE id = $1`, id).
		Scan(&a.ID, &a.UserID, &a.CourseID, &a.Session, &a.FatherName, &a.MotherName,
			&a.DateOfBirth, &a.Gender, &a.Religion, &a.MaritalStatus, &a.NidOrBirthCert,
			&a.PresentAddress, &a.GuardianPhone, &a.PhotoURL, &a.SignatureURL, &a.RollNo,
			&a.Status, &a.PaymentID, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLPaymentStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := db.DB.QueryRowContext(ctx,
		`SELECT id, name, student_id, email, phone, role, avatar FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.StudentID, &u.Email, &u.Phone, &u.Role, &u.Avatar)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLPaymentStore) AdminEmails(ctx context.Context) ([]string, error) {
	rows, err := db.DB.QueryContext(ctx, `SELECT email FROM users WHERE role = 'admin'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (s *SQLPaymentStore) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	row := db.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (s *SQLPaymentStore) HasActivePayment(ctx context.Context, userID int, sourceType string, sourceID int) (bool, error) {
	var exists bool
	err := db.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments
			WHERE user_id = $1 AND source_type = $2 AND source_id = $3
			AND status IN ('pending', 'verified'))`,
		userID, sourceType, sourceID).Scan(&exists)
	return exists, err
}

func (s *SQLPaymentStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	err := db.DB.QueryRowContext(ctx,
		`INSERT INTO payments (user_id, source_type, source_id, amount, transaction_fee,
			total_amount, payment_method, sender_mobile, transaction_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		p.UserID, p.SourceType, p.SourceID, p.Amount, p.TransactionFee, p.TotalAmount,
		p.PaymentMethod, p.SenderMobile, p.TransactionID, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		// The partial unique index turns a submit race into a clean conflict
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.NewConflictError("Payment already submitted or verified")
		}
		return err
	}
	return nil
}

func (s *SQLPaymentStore) SetAdmissionPayment(ctx context.Context, admissionID, paymentID int) error {
	_, err := db.DB.ExecContext(ctx,
		`UPDATE admissions SET payment_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		paymentID, admissionID)
	return err
}

// ClaimVerification runs the status flip, the counter draw and the receipt
// stamp in one transaction. Either the payment ends up verified with its
// receipt, or the transaction rolls back and it stays pending.
func (s *SQLPaymentStore) ClaimVerification(ctx context.Context, paymentID, adminID int, at time.Time,
	receiptScope string, format func(int64) string) (string, bool, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = 'verified', verified_by = $1, verified_at = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = 'pending'`,
		adminID, at, paymentID)
	if err != nil {
		return "", false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return "", false, err
	}
	if rows == 0 {
		return "", false, nil
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO sequence_counters (scope, value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value`, receiptScope).Scan(&seq); err != nil {
		return "", false, err
	}

	receiptNo := format(seq)
	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET receipt_no = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		receiptNo, paymentID); err != nil {
		return "", false, err
	}

	if err := tx.Commit(); err != nil {
		return "", false, err
	}
	return receiptNo, true, nil
}

func (s *SQLPaymentStore) ApproveAdmission(ctx context.Context, admissionID int, rollNo string) error {
	_, err := db.DB.ExecContext(ctx,
		`UPDATE admissions SET status = 'approved', roll_no = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`,
		rollNo, admissionID)
	return err
}

func (s *SQLPaymentStore) MarkRejected(ctx context.Context, paymentID int) (bool, error) {
	result, err := db.DB.ExecContext(ctx,
		`UPDATE payments SET status = 'rejected', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status <> 'verified'`, paymentID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *SQLPaymentStore) DeletePayment(ctx context.Context, paymentID int) (bool, error) {
	result, err := db.DB.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// NextSequence bumps the named counter in a single atomic statement. Two
// concurrent verifiers can never observe the same value.
func (s *SQLPaymentStore) NextSequence(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := db.DB.QueryRowContext(ctx,
		`INSERT INTO sequence_counters (scope, value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value`, scope).Scan(&value)
	return value, err
}

func (s *SQLPaymentStore) ListPayments(ctx context.Context) ([]models.EnrichedPayment, error) {
	rows, err := db.DB.QueryContext(ctx,
		`SELECT p.id, p.user_id, p.source_type, p.source_id, p.amount, p.transaction_fee,
			p.total_amount, p.payment_method, p.sender_mobile, p.transaction_ref,
			p.status, p.receipt_no, p.verified_by, p.verified_at, p.created_at,
			p.updated_at, u.name, u.student_id
		FROM payments p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.EnrichedPayment{}
	for rows.Next() {
		var p models.EnrichedPayment
		if err := rows.Scan(&p.ID, &p.UserID, &p.SourceType, &p.SourceID, &p.Amount,
			&p.TransactionFee, &p.TotalAmount, &p.PaymentMethod, &p.SenderMobile,
			&p.TransactionID, &p.Status, &p.ReceiptNo, &p.VerifiedBy, &p.VerifiedAt,
			&p.CreatedAt, &p.UpdatedAt, &p.UserName, &p.UserStudentID); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *SQLPaymentStore) ListVerifiedProductPurchases(ctx context.Context, userID int) ([]models.PurchasedProduct, error) {
	rows, err := db.DB.QueryContext(ctx,
		`SELECT p.id, pr.id, pr.title, pr.type, pr.thumbnail_url, p.receipt_no,
			p.total_amount, p.verified_at
		FROM payments p
		JOIN products pr ON pr.id = p.source_id
		WHERE p.user_id = $1 AND p.source_type = 'product' AND p.status = 'verified'
		ORDER BY p.verified_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []models.PurchasedProduct{}
	for rows.Next() {
		var d models.PurchasedProduct
		if err := rows.Scan(&d.PaymentID, &d.ProductID, &d.Title, &d.Type,
			&d.ThumbnailURL, &d.ReceiptNo, &d.TotalAmount, &d.VerifiedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, d)
	}
	return purchases, rows.Err()
}
