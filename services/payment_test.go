package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tctc-backend/errors"
	"tctc-backend/models"
)

// fakeStore is an in-memory PaymentStore with the same uniqueness and
// claim semantics as the SQL implementation.
type fakeStore struct {
	mu         sync.Mutex
	courses    map[int]*models.Course
	products   map[int]*models.Product
	admissions map[int]*models.Admission
	users      map[int]*models.User
	payments   map[int]*models.Payment
	sequences  map[string]int64
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		courses:    map[int]*models.Course{},
		products:   map[int]*models.Product{},
		admissions: map[int]*models.Admission{},
		users:      map[int]*models.User{},
		payments:   map[int]*models.Payment{},
		sequences:  map[string]int64{},
	}
}

func (f *fakeStore) GetCourse(_ context.Context, id int) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.courses[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id int) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeStore) GetAdmission(_ context.Context, id int) (*models.Admission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.admissions[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeStore) GetUser(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeStore) AdminEmails(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emails := []string{}
	for _, u := range f.users {
		if u.Role == models.RoleAdmin {
			emails = append(emails, u.Email)
		}
	}
	return emails, nil
}

func (f *fakeStore) GetPayment(_ context.Context, id int) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeStore) HasActivePayment(_ context.Context, userID int, sourceType string, sourceID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasActiveLocked(userID, sourceType, sourceID), nil
}

func (f *fakeStore) hasActiveLocked(userID int, sourceType string, sourceID int) bool {
	for _, p := range f.payments {
		if p.UserID == userID && p.SourceType == sourceType && p.SourceID == sourceID && p.IsActive() {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirrors the partial unique index on (user, source) over active rows
	if f.hasActiveLocked(p.UserID, p.SourceType, p.SourceID) {
		return errors.NewConflictError("Payment already submitted or verified")
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	f.payments[p.ID] = &stored
	return nil
}

func (f *fakeStore) SetAdmissionPayment(_ context.Context, admissionID, paymentID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.admissions[admissionID]; ok {
		a.PaymentID = &paymentID
	}
	return nil
}

func (f *fakeStore) ClaimVerification(_ context.Context, paymentID, adminID int, at time.Time,
	receiptScope string, format func(int64) string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok || p.Status != models.PaymentPending {
		return "", false, nil
	}
	p.Status = models.PaymentVerified
	p.VerifiedBy = &adminID
	p.VerifiedAt = &at
	f.sequences[receiptScope]++
	p.ReceiptNo = format(f.sequences[receiptScope])
	return p.ReceiptNo, true, nil
}

func (f *fakeStore) ApproveAdmission(_ context.Context, admissionID int, rollNo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.admissions[admissionID]; ok {
		a.Status = models.AdmissionApproved
		a.RollNo = rollNo
	}
	return nil
}

func (f *fakeStore) MarkRejected(_ context.Context, paymentID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok || p.Status == models.PaymentVerified {
		return false, nil
	}
	p.Status = models.PaymentRejected
	return true, nil
}

func (f *fakeStore) DeletePayment(_ context.Context, paymentID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[paymentID]; !ok {
		return false, nil
	}
	delete(f.payments, paymentID)
	return true, nil
}

func (f *fakeStore) NextSequence(_ context.Context, scope string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequences[scope]++
	return f.sequences[scope], nil
}

func (f *fakeStore) ListPayments(context.Context) ([]models.EnrichedPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.EnrichedPayment{}
	for _, p := range f.payments {
		e := models.EnrichedPayment{Payment: *p}
		if u, ok := f.users[p.UserID]; ok {
			e.UserName = u.Name
			e.UserStudentID = u.StudentID
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListVerifiedProductPurchases(_ context.Context, userID int) ([]models.PurchasedProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PurchasedProduct{}
	for _, p := range f.payments {
		if p.UserID != userID || p.SourceType != models.SourceProduct || p.Status != models.PaymentVerified {
			continue
		}
		item := models.PurchasedProduct{
			PaymentID:   p.ID,
			ProductID:   p.SourceID,
			ReceiptNo:   p.ReceiptNo,
			TotalAmount: p.TotalAmount,
			VerifiedAt:  p.VerifiedAt,
		}
		if prod, ok := f.products[p.SourceID]; ok {
			item.Title = prod.Title
			item.Type = prod.Type
			item.ThumbnailURL = prod.ThumbnailURL
		}
		out = append(out, item)
	}
	return out, nil
}

// --- fixtures ---

func newTestService(store *fakeStore) *PaymentService {
	svc := NewPaymentServiceWith(store, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func seedStudent(store *fakeStore, id int) *models.User {
	u := &models.User{ID: id, Name: fmt.Sprintf("Student %d", id),
		StudentID: fmt.Sprintf("TCTC-2026%04d", 1000+id),
		Email:     fmt.Sprintf("student%d@example.com", id), Role: models.RoleStudent}
	store.users[id] = u
	return u
}

func seedAdmin(store *fakeStore, id int) *models.User {
	u := &models.User{ID: id, Name: "Admin", Email: fmt.Sprintf("admin%d@example.com", id),
		Role: models.RoleAdmin}
	store.users[id] = u
	return u
}

func seedCourse(store *fakeStore, id int, fee float64) *models.Course {
	c := &models.Course{ID: id, Title: fmt.Sprintf("Course %d", id), Fee: fee,
		Duration: "6 months", IsActive: true}
	store.courses[id] = c
	return c
}

func seedProduct(store *fakeStore, id int, price float64, active bool) *models.Product {
	p := &models.Product{ID: id, Title: fmt.Sprintf("Product %d", id), Type: "PDF",
		Price: price, IsActive: active}
	store.products[id] = p
	return p
}

func seedAdmission(store *fakeStore, id, userID, courseID int) *models.Admission {
	a := &models.Admission{ID: id, UserID: userID, CourseID: courseID,
		Session: "2026", Status: models.AdmissionPending}
	store.admissions[id] = a
	return a
}

// --- Submit ---

func TestSubmitAdmissionPayment(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceType:    models.SourceAdmission,
		SourceID:      100,
		PaymentMethod: "bkash",
		SenderMobile:  "01711111111",
		TransactionID: "TRX123",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.Equal(t, 5000.0, payment.Amount)
	assert.Equal(t, models.FeeStandard, payment.TransactionFee)
	assert.Equal(t, 5030.0, payment.TotalAmount)
	assert.Empty(t, payment.ReceiptNo)

	// The admission gains a back-reference to its payment
	admission, _ := store.GetAdmission(context.Background(), 100)
	require.NotNil(t, admission.PaymentID)
	assert.Equal(t, payment.ID, *admission.PaymentID)
}

func TestSubmitDefaultsToAdmissionSource(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 4000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "nagad",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceAdmission, payment.SourceType)
}

func TestSubmitNormalizesMethod(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 4000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "  BKASH ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MethodBkash, payment.PaymentMethod)
}

func TestSubmitRejectsUnknownMethod(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)

	_, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "paypal",
	})
	require.Error(t, err)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
}

func TestSubmitRequiresSourceID(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)

	_, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		PaymentMethod: "bkash",
	})
	require.Error(t, err)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
}

func TestSubmitRejectsUnsupportedSourceType(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)

	_, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceType:    "subscription",
		SourceID:      1,
		PaymentMethod: "bkash",
	})
	require.Error(t, err)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
}

func TestSubmitOfflineOnlyForAdmissions(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedProduct(store, 20, 500, true)

	_, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceType:    models.SourceProduct,
		SourceID:      20,
		PaymentMethod: "offline",
	})
	require.Error(t, err)
	assert.Equal(t, errors.Invalid, errors.KindOf(err))
}

func TestSubmitOfflineAdmissionFee(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "offline",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeeOfflineAdmission, payment.TransactionFee)
	assert.Equal(t, 5020.0, payment.TotalAmount)
}

func TestSubmitIgnoresAmountOverrideForAdmissions(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
		Amount:        1, // must not undercut the course fee
	})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, payment.Amount)
}

func TestSubmitHonorsAmountOverrideForProducts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedProduct(store, 20, 500, true)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceType:    models.SourceProduct,
		SourceID:      20,
		PaymentMethod: "rocket",
		Amount:        450,
	})
	require.NoError(t, err)
	assert.Equal(t, 450.0, payment.Amount)
	assert.Equal(t, 480.0, payment.TotalAmount)
}

func TestSubmitInactiveProductNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedProduct(store, 20, 500, false)

	_, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceType:    models.SourceProduct,
		SourceID:      20,
		PaymentMethod: "bkash",
	})
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.KindOf(err))
}

func TestSubmitDuplicateActivePaymentConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	in := SubmitPaymentInput{SourceID: 100, PaymentMethod: "bkash"}
	_, err := svc.Submit(context.Background(), student, in)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), student, in)
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
}

func TestSubmitAllowedAfterRejection(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	in := SubmitPaymentInput{SourceID: 100, PaymentMethod: "bkash"}
	first, err := svc.Submit(context.Background(), student, in)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), first.ID))

	second, err := svc.Submit(context.Background(), student, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.PaymentPending, second.Status)
}

func TestSubmitAmountFrozenAgainstLaterFeeChange(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)

	// Price hike after submission must not touch the recorded amounts
	store.mu.Lock()
	store.courses[10].Fee = 9000
	store.mu.Unlock()

	got, err := svc.Get(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, got.Amount)
	assert.Equal(t, 5030.0, got.TotalAmount)
}

// --- Verify ---

func TestVerifyAdmissionPayment(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	admin := seedAdmin(store, 2)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)

	result, err := svc.Verify(context.Background(), payment.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, "RCP-2026-1001", result.ReceiptNo)
	assert.Equal(t, "261001", result.RollNo)

	admission, _ := store.GetAdmission(context.Background(), 100)
	assert.Equal(t, models.AdmissionApproved, admission.Status)
	assert.Equal(t, "261001", admission.RollNo)

	verified, _ := store.GetPayment(context.Background(), payment.ID)
	assert.Equal(t, models.PaymentVerified, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, admin.ID, *verified.VerifiedBy)
	assert.NotNil(t, verified.VerifiedAt)
}

func TestVerifyMissingPayment(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := seedAdmin(store, 2)

	_, err := svc.Verify(context.Background(), 999, admin)
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.KindOf(err))
}

func TestVerifyTwiceConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	admin := seedAdmin(store, 2)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), payment.ID, admin)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), payment.ID, admin)
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
}

func TestVerifyRejectedPaymentConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	admin := seedAdmin(store, 2)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Reject(context.Background(), payment.ID))

	_, err = svc.Verify(context.Background(), payment.ID, admin)
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
}

// flakyClaimStore fails the first n verification claims the way a dropped
// connection would: the transaction rolls back and nothing is mutated.
type flakyClaimStore struct {
	*fakeStore
	failures int
}

func (s *flakyClaimStore) ClaimVerification(ctx context.Context, paymentID, adminID int, at time.Time,
	receiptScope string, format func(int64) string) (string, bool, error) {
	if s.failures > 0 {
		s.failures--
		return "", false, fmt.Errorf("driver: bad connection")
	}
	return s.fakeStore.ClaimVerification(ctx, paymentID, adminID, at, receiptScope, format)
}

func TestVerifyFailureLeavesPaymentPendingAndRetryable(t *testing.T) {
	store := newFakeStore()
	flaky := &flakyClaimStore{fakeStore: store, failures: 1}
	svc := NewPaymentServiceWith(flaky, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	student := seedStudent(store, 1)
	admin := seedAdmin(store, 2)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), payment.ID, admin)
	require.Error(t, err)
	assert.NotEqual(t, errors.Conflict, errors.KindOf(err))

	// The failed attempt must not strand the payment half-verified
	after, _ := store.GetPayment(context.Background(), payment.ID)
	assert.Equal(t, models.PaymentPending, after.Status)
	assert.Empty(t, after.ReceiptNo)
	admission, _ := store.GetAdmission(context.Background(), 100)
	assert.Equal(t, models.AdmissionPending, admission.Status)

	// A retry settles normally and issues the first receipt of the year
	result, err := svc.Verify(context.Background(), payment.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "RCP-2026-1001", result.ReceiptNo)
	assert.Equal(t, "261001", result.RollNo)

	settled, _ := store.GetPayment(context.Background(), payment.ID)
	assert.Equal(t, models.PaymentVerified, settled.Status)
	assert.Equal(t, "RCP-2026-1001", settled.ReceiptNo)
}

// rejectingClaimStore rejects the payment between the status read and the
// claim, the way a concurrent admin action would.
type rejectingClaimStore struct {
	*fakeStore
}

func (s *rejectingClaimStore) ClaimVerification(ctx context.Context, paymentID, adminID int, at time.Time,
	receiptScope string, format func(int64) string) (string, bool, error) {
	s.fakeStore.MarkRejected(ctx, paymentID)
	return s.fakeStore.ClaimVerification(ctx, paymentID, adminID, at, receiptScope, format)
}

func TestVerifyLostClaimReportsRejection(t *testing.T) {
	store := newFakeStore()
	svc := NewPaymentServiceWith(&rejectingClaimStore{fakeStore: store}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	student := seedStudent(store, 1)
	admin := seedAdmin(store, 2)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), payment.ID, admin)
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
	assert.Contains(t, errors.MessageOf(err), "rejected")
}

func TestVerifyRaceSingleWinner(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)

	const racers = 8
	var wins, conflicts int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(adminID int) {
			defer wg.Done()
			admin := &models.User{ID: adminID, Role: models.RoleAdmin}
			_, err := svc.Verify(context.Background(), payment.ID, admin)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.KindOf(err) == errors.Conflict {
				conflicts++
			}
		}(1000 + i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(racers-1), conflicts)
}

func TestConcurrentVerificationsGetDistinctReceipts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := seedAdmin(store, 99)
	seedCourse(store, 10, 5000)

	const n = 10
	paymentIDs := make([]int, 0, n)
	for i := 0; i < n; i++ {
		student := seedStudent(store, i+1)
		seedAdmission(store, 100+i, student.ID, 10)
		p, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
			SourceID:      100 + i,
			PaymentMethod: "bkash",
		})
		require.NoError(t, err)
		paymentIDs = append(paymentIDs, p.ID)
	}

	receipts := make(chan string, n)
	var wg sync.WaitGroup
	for _, id := range paymentIDs {
		wg.Add(1)
		go func(paymentID int) {
			defer wg.Done()
			result, err := svc.Verify(context.Background(), paymentID, admin)
			if err == nil {
				receipts <- result.ReceiptNo
			}
		}(id)
	}
	wg.Wait()
	close(receipts)

	seen := map[string]bool{}
	for r := range receipts {
		assert.False(t, seen[r], "duplicate receipt number %s", r)
		seen[r] = true
	}
	assert.Len(t, seen, n)
}

func TestRollNumbersScopedPerCourse(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	admin := seedAdmin(store, 99)
	seedCourse(store, 10, 5000)
	seedCourse(store, 20, 7000)

	verify := func(studentID, admissionID, courseID int) string {
		student := seedStudent(store, studentID)
		seedAdmission(store, admissionID, student.ID, courseID)
		p, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
			SourceID:      admissionID,
			PaymentMethod: "bkash",
		})
		require.NoError(t, err)
		result, err := svc.Verify(context.Background(), p.ID, admin)
		require.NoError(t, err)
		return result.RollNo
	}

	assert.Equal(t, "261001", verify(1, 101, 10))
	assert.Equal(t, "261002", verify(2, 102, 10))
	// A different course starts its own serial
	assert.Equal(t, "261001", verify(3, 103, 20))
}

func TestProductPurchaseEndToEnd(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	admin := seedAdmin(store, 2)
	seedProduct(store, 20, 750, true)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceType:    models.SourceProduct,
		SourceID:      20,
		PaymentMethod: "nagad",
		TransactionID: "TRX777",
	})
	require.NoError(t, err)
	assert.Equal(t, 780.0, payment.TotalAmount)

	result, err := svc.Verify(context.Background(), payment.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "RCP-2026-1001", result.ReceiptNo)
	assert.Empty(t, result.RollNo)

	downloads, err := svc.MyDownloads(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, downloads, 1)
	assert.Equal(t, 20, downloads[0].ProductID)
	assert.Equal(t, "RCP-2026-1001", downloads[0].ReceiptNo)
	assert.Equal(t, "Product 20", downloads[0].Title)
}

// --- Reject / Delete / List ---

func TestRejectVerifiedPaymentConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	admin := seedAdmin(store, 2)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), payment.ID, admin)
	require.NoError(t, err)

	err = svc.Reject(context.Background(), payment.ID)
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.KindOf(err))
}

func TestRejectTwiceIsHarmless(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)

	payment, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), payment.ID))
	require.NoError(t, svc.Reject(context.Background(), payment.ID))
}

func TestDeleteMissingPayment(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	err := svc.Delete(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.KindOf(err))
}

func TestListEnrichesSourceDetails(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	student := seedStudent(store, 1)
	seedCourse(store, 10, 5000)
	seedAdmission(store, 100, student.ID, 10)
	seedProduct(store, 20, 750, true)

	_, err := svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceID:      100,
		PaymentMethod: "bkash",
	})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), student, SubmitPaymentInput{
		SourceType:    models.SourceProduct,
		SourceID:      20,
		PaymentMethod: "nagad",
	})
	require.NoError(t, err)

	payments, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, payments, 2)

	require.NotNil(t, payments[0].SourceDetails)
	assert.Equal(t, "Course 10", payments[0].SourceDetails.Title)
	assert.Equal(t, 5000.0, payments[0].SourceDetails.Fee)

	require.NotNil(t, payments[1].SourceDetails)
	assert.Equal(t, "Product 20", payments[1].SourceDetails.Title)
	assert.Equal(t, 750.0, payments[1].SourceDetails.Price)
}
