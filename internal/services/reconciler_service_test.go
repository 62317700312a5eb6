package services

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"reportly/internal/gateway"
	"reportly/internal/models/db_models"
	"reportly/internal/models/request_models"
	"reportly/internal/repositories"
	"reportly/pkg/utils"
)

const (
	testKey  = "gtKFFx"
	testSalt = "eCwWELxi"
)

// ---- fakes ----

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakePayments struct {
	mu      sync.Mutex
	records []*db_models.PaymentRecord

	// popped once per Create call before the insert happens
	createErrs []error
	findErr    error
	hideOnFind int // next N FindByGatewayTxnID calls miss
}

func (f *fakePayments) Tx(tx *gorm.DB) repositories.PaymentStore { return f }

func (f *fakePayments) FindByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*db_models.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.hideOnFind > 0 {
		f.hideOnFind--
		return nil, nil
	}
	for _, rec := range f.records {
		if rec.GatewayTxnID == gatewayTxnID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) Create(ctx context.Context, rec *db_models.PaymentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range f.records {
		if existing.GatewayTxnID == rec.GatewayTxnID {
			return &pgconn.PgError{Code: "23505", ConstraintName: "ux_payment_records_gateway_txn_id"}
		}
		if rec.InvoiceNumber != nil && existing.InvoiceNumber != nil && *existing.InvoiceNumber == *rec.InvoiceNumber {
			return &pgconn.PgError{Code: "23505", ConstraintName: "ux_payment_records_invoice_number"}
		}
	}
	rec.ID = uuid.New()
	cp := *rec
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakePayments) AttachSubscription(ctx context.Context, paymentID, subscriptionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == paymentID {
			id := subscriptionID
			rec.SubscriptionID = &id
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakePayments) NextInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := "INV-" + now.UTC().Format("200601") + "-"
	seq := 0
	for _, rec := range f.records {
		if rec.InvoiceNumber == nil || !strings.HasPrefix(*rec.InvoiceNumber, prefix) {
			continue
		}
		var n int
		for _, c := range (*rec.InvoiceNumber)[len(prefix):] {
			n = n*10 + int(c-'0')
		}
		if n > seq {
			seq = n
		}
	}
	return prefix + padSeq(seq+1), nil
}

func padSeq(n int) string {
	s := ""
	for d := 100000; d >= 1; d /= 10 {
		s += string(rune('0' + (n/d)%10))
	}
	return s
}

func (f *fakePayments) byStatus(status db_models.PaymentStatus) []*db_models.PaymentRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*db_models.PaymentRecord
	for _, rec := range f.records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

type fakeLedger struct {
	mu   sync.Mutex
	subs []*db_models.Subscription
	due  []uuid.UUID
}

func (f *fakeLedger) Tx(tx *gorm.DB) repositories.SubscriptionLedger { return f }

func (f *fakeLedger) Activate(ctx context.Context, userID, planID uuid.UUID, tier string, startsAt, endsAt int64) (*db_models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &db_models.Subscription{
		UserID:   userID,
		PlanID:   planID,
		Tier:     tier,
		Status:   db_models.SubStatusActive,
		StartsAt: startsAt,
		EndsAt:   endsAt,
	}
	sub.ID = uuid.New()
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeLedger) Cancel(ctx context.Context, subscriptionID uuid.UUID, now int64) (*db_models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.ID == subscriptionID {
			if err := sub.MarkCancelled(now); err != nil {
				return nil, err
			}
			return sub, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) ExpireDue(ctx context.Context, now int64) ([]uuid.UUID, error) {
	return f.due, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*db_models.User
}

func (f *fakeUsers) Tx(tx *gorm.DB) repositories.UserRepository { return f }

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) SetSubscription(ctx context.Context, userID, subscriptionID uuid.UUID, tier string, status db_models.SubscriptionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	id := subscriptionID
	u.SubscriptionID = &id
	u.Tier = tier
	u.SubscriptionStatus = string(status)
	return nil
}

func (f *fakeUsers) SetSubscriptionStatus(ctx context.Context, userID uuid.UUID, status db_models.SubscriptionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.SubscriptionStatus = string(status)
	}
	return nil
}

func (f *fakeUsers) MarkSubscriptionsExpired(ctx context.Context, userIDs []uuid.UUID) error {
	for _, id := range userIDs {
		if err := f.SetSubscriptionStatus(ctx, id, db_models.SubStatusExpired); err != nil {
			return err
		}
	}
	return nil
}

type fakePlans struct {
	plans map[string]*db_models.Plan
}

func (f *fakePlans) Tx(tx *gorm.DB) repositories.PlanRepository { return f }

func (f *fakePlans) FindByCode(ctx context.Context, code string) (*db_models.Plan, error) {
	if p, ok := f.plans[code]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePlans) GetActivePlans(ctx context.Context) ([]db_models.Plan, error) {
	var out []db_models.Plan
	for _, p := range f.plans {
		out = append(out, *p)
	}
	return out, nil
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks []Task
}

func (f *fakeTasks) Enqueue(t Task) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	return true
}

func (f *fakeTasks) runAll(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	tasks := f.tasks
	f.tasks = nil
	f.mu.Unlock()
	for _, task := range tasks {
		if err := task.Run(context.Background()); err != nil {
			t.Fatalf("task %s failed: %v", task.Name, err)
		}
	}
}

type sentReceipt struct {
	to             string
	subject        string
	attachmentName string
	attachment     []byte
}

type fakeMail struct {
	mu       sync.Mutex
	receipts []sentReceipt
}

func (f *fakeMail) SendMailToNotifyUser(to, subject, body, ctaText, ctaURL string) error { return nil }

func (f *fakeMail) SendPaymentReceipt(to, subject, intro, attachmentName string, attachment []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, sentReceipt{to: to, subject: subject, attachmentName: attachmentName, attachment: attachment})
	return nil
}

// ---- fixture ----

type reconcilerFixture struct {
	svc      *reconcilerService
	payments *fakePayments
	ledger   *fakeLedger
	users    *fakeUsers
	plans    *fakePlans
	tasks    *fakeTasks
	mail     *fakeMail

	userID uuid.UUID
	now    time.Time
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	userID := uuid.New()
	user := &db_models.User{Name: "Asha", Email: "asha@example.com"}
	user.ID = userID

	plan := &db_models.Plan{
		Code:       "professional",
		Name:       "Professional",
		Period:     db_models.PeriodMonth,
		PriceMinor: 29900,
		Currency:   "INR",
		IsActive:   true,
	}
	plan.ID = uuid.New()

	fx := &reconcilerFixture{
		payments: &fakePayments{},
		ledger:   &fakeLedger{},
		users:    &fakeUsers{users: map[uuid.UUID]*db_models.User{userID: user}},
		plans:    &fakePlans{plans: map[string]*db_models.Plan{"professional": plan}},
		tasks:    &fakeTasks{},
		mail:     &fakeMail{},
		userID:   userID,
		now:      time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
	}

	svc := NewReconcilerService(
		gateway.Config{MerchantKey: testKey, MerchantSalt: testSalt},
		fakeTxRunner{},
		fx.payments, fx.ledger, fx.users, fx.plans,
		fx.tasks, NewInvoiceService(), fx.mail, "Reportly",
	).(*reconcilerService)
	svc.now = func() time.Time { return fx.now }
	fx.svc = svc

	return fx
}

// responseHash computes the digest the gateway attaches to callbacks.
func responseHash(cb *request_models.PaymentCallback, salt string) string {
	parts := []string{
		salt, cb.Status,
		"", "", "", "", "",
		cb.UDF5, cb.UDF4, cb.UDF3, cb.UDF2, cb.UDF1,
		cb.Email, cb.FirstName, cb.ProductInfo, cb.Amount, cb.TxnID, cb.Key,
	}
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func (fx *reconcilerFixture) callback(txnid, mihpayid, status string) *request_models.PaymentCallback {
	cb := &request_models.PaymentCallback{
		Key:         testKey,
		TxnID:       txnid,
		Amount:      "299.00",
		ProductInfo: "Reportly Professional",
		FirstName:   "Asha",
		Email:       "asha@example.com",
		Status:      status,
		MihpayID:    mihpayid,
		UDF1:        fx.userID.String(),
		UDF2:        "Professional",
		UDF3:        "ORD-8F14E45F",
		UDF4:        "professional",
		Mode:        "CC",
	}
	cb.Hash = responseHash(cb, testSalt)
	return cb
}

// ---- tests ----

func TestReconcileSuccessSettles(t *testing.T) {
	fx := newReconcilerFixture(t)
	cb := fx.callback("TXN100", "MIH100", "success")

	res, err := fx.svc.Reconcile(context.Background(), EntryWebhook, cb)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	if !res.Settled || res.Duplicate {
		t.Errorf("result = %+v, want settled non-duplicate", res)
	}
	if res.InvoiceNumber != "INV-202608-000001" {
		t.Errorf("invoice = %q, want INV-202608-000001", res.InvoiceNumber)
	}
	if res.GatewayTxnID != "MIH100" {
		t.Errorf("gateway txn id = %q, want MIH100", res.GatewayTxnID)
	}

	recs := fx.payments.byStatus(db_models.PaymentStatusSuccess)
	if len(recs) != 1 {
		t.Fatalf("success records = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.AmountMinor != 29900 {
		t.Errorf("amount minor = %d, want 29900", rec.AmountMinor)
	}
	if rec.Currency != "INR" {
		t.Errorf("currency = %q, want INR", rec.Currency)
	}
	if rec.SubscriptionID == nil {
		t.Error("payment record not linked to subscription")
	}
	if rec.PaidAt == nil || *rec.PaidAt != fx.now.Unix() {
		t.Errorf("paid at = %v, want %d", rec.PaidAt, fx.now.Unix())
	}

	if len(fx.ledger.subs) != 1 {
		t.Fatalf("subscriptions = %d, want 1", len(fx.ledger.subs))
	}
	sub := fx.ledger.subs[0]
	if sub.Status != db_models.SubStatusActive {
		t.Errorf("subscription status = %s, want active", sub.Status)
	}
	wantEnds := fx.now.AddDate(0, 1, 0).Unix()
	if sub.EndsAt != wantEnds {
		t.Errorf("subscription ends at %d, want %d", sub.EndsAt, wantEnds)
	}

	user, _ := fx.users.FindByID(context.Background(), fx.userID)
	if user.SubscriptionID == nil || *user.SubscriptionID != sub.ID {
		t.Error("user snapshot not pointing at the new subscription")
	}
	if user.Tier != "professional" || user.SubscriptionStatus != string(db_models.SubStatusActive) {
		t.Errorf("user snapshot = tier %q status %q", user.Tier, user.SubscriptionStatus)
	}

	if len(fx.tasks.tasks) != 1 {
		t.Fatalf("deferred tasks = %d, want 1", len(fx.tasks.tasks))
	}
	if fx.tasks.tasks[0].Name != "payment-receipt:INV-202608-000001" {
		t.Errorf("task name = %q", fx.tasks.tasks[0].Name)
	}

	fx.tasks.runAll(t)
	if len(fx.mail.receipts) != 1 {
		t.Fatalf("receipts sent = %d, want 1", len(fx.mail.receipts))
	}
	receipt := fx.mail.receipts[0]
	if receipt.to != "asha@example.com" {
		t.Errorf("receipt to = %q", receipt.to)
	}
	if receipt.attachmentName != "INV-202608-000001.html" {
		t.Errorf("attachment name = %q", receipt.attachmentName)
	}
	if !strings.Contains(string(receipt.attachment), "INV-202608-000001") {
		t.Error("rendered invoice does not mention its own number")
	}
}

func TestReconcileDuplicateDeliveries(t *testing.T) {
	fx := newReconcilerFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Reconcile(ctx, EntryWebhook, fx.callback("TXN200", "MIH200", "success"))
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	// Same settlement arriving via the browser redirect and a webhook retry.
	for _, entry := range []EntryPoint{EntrySuccessRedirect, EntryWebhook} {
		res, err := fx.svc.Reconcile(ctx, entry, fx.callback("TXN200", "MIH200", "success"))
		if err != nil {
			t.Fatalf("duplicate via %s: %v", entry, err)
		}
		if !res.Settled || !res.Duplicate {
			t.Errorf("duplicate via %s = %+v, want settled duplicate", entry, res)
		}
		if res.InvoiceNumber != first.InvoiceNumber {
			t.Errorf("duplicate invoice = %q, want %q", res.InvoiceNumber, first.InvoiceNumber)
		}
	}

	if n := len(fx.payments.byStatus(db_models.PaymentStatusSuccess)); n != 1 {
		t.Errorf("success records = %d, want 1", n)
	}
	if len(fx.ledger.subs) != 1 {
		t.Errorf("subscriptions = %d, want 1", len(fx.ledger.subs))
	}
	if len(fx.tasks.tasks) != 1 {
		t.Errorf("deferred tasks = %d, want 1", len(fx.tasks.tasks))
	}

	// Duplicates consumed no invoice slots: the next settlement is 000002.
	next, err := fx.svc.Reconcile(ctx, EntryWebhook, fx.callback("TXN201", "MIH201", "success"))
	if err != nil {
		t.Fatalf("next settlement: %v", err)
	}
	if next.InvoiceNumber != "INV-202608-000002" {
		t.Errorf("next invoice = %q, want INV-202608-000002", next.InvoiceNumber)
	}
}

func TestReconcileClaimLostRace(t *testing.T) {
	fx := newReconcilerFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Reconcile(ctx, EntryWebhook, fx.callback("TXN300", "MIH300", "success")); err != nil {
		t.Fatalf("winner: %v", err)
	}

	// The loser read before the winner committed, then lost the insert race.
	fx.payments.hideOnFind = 1
	res, err := fx.svc.Reconcile(ctx, EntrySuccessRedirect, fx.callback("TXN300", "MIH300", "success"))
	if err != nil {
		t.Fatalf("loser: %v", err)
	}
	if !res.Settled || !res.Duplicate {
		t.Errorf("loser result = %+v, want settled duplicate", res)
	}
	if res.InvoiceNumber != "INV-202608-000001" {
		t.Errorf("loser surfaced invoice %q, want the winner's", res.InvoiceNumber)
	}
	if len(fx.ledger.subs) != 1 {
		t.Errorf("subscriptions = %d, want 1", len(fx.ledger.subs))
	}
}

func TestReconcileFailureCallback(t *testing.T) {
	fx := newReconcilerFixture(t)
	ctx := context.Background()

	cb := fx.callback("TXN400", "MIH400", "failure")
	cb.Error = "E501"
	cb.ErrorMessage = "Bank declined the transaction"
	cb.Hash = responseHash(cb, testSalt)

	res, err := fx.svc.Reconcile(ctx, EntryFailureRedirect, cb)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if res.Settled || res.Duplicate {
		t.Errorf("result = %+v, want unsettled", res)
	}

	recs := fx.payments.byStatus(db_models.PaymentStatusFailed)
	if len(recs) != 1 {
		t.Fatalf("failed records = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.InvoiceNumber != nil {
		t.Errorf("failed record has invoice %q", *rec.InvoiceNumber)
	}
	if rec.FailureReason != "Bank declined the transaction" || rec.ErrorCode != "E501" {
		t.Errorf("failure detail = %q / %q", rec.FailureReason, rec.ErrorCode)
	}
	if len(fx.ledger.subs) != 0 {
		t.Errorf("subscriptions = %d, want 0", len(fx.ledger.subs))
	}
	if len(fx.tasks.tasks) != 0 {
		t.Errorf("deferred tasks = %d, want 0", len(fx.tasks.tasks))
	}

	// Retried failure delivery is a silent no-op.
	if _, err := fx.svc.Reconcile(ctx, EntryWebhook, cb); err != nil {
		t.Fatalf("duplicate failure: %v", err)
	}
	if n := len(fx.payments.byStatus(db_models.PaymentStatusFailed)); n != 1 {
		t.Errorf("failed records after retry = %d, want 1", n)
	}

	// A later successful retry under a new gateway txn id still settles.
	ok, err := fx.svc.Reconcile(ctx, EntryWebhook, fx.callback("TXN401", "MIH401", "success"))
	if err != nil {
		t.Fatalf("retry settlement: %v", err)
	}
	if ok.InvoiceNumber != "INV-202608-000001" {
		t.Errorf("retry invoice = %q, want INV-202608-000001", ok.InvoiceNumber)
	}
}

func TestReconcileRejectsBadSignature(t *testing.T) {
	fx := newReconcilerFixture(t)

	cb := fx.callback("TXN500", "MIH500", "success")
	cb.Amount = "1.00" // tampered after signing

	_, err := fx.svc.Reconcile(context.Background(), EntryWebhook, cb)
	if !errors.Is(err, utils.ErrSignatureInvalid) {
		t.Fatalf("error = %v, want ErrSignatureInvalid", err)
	}
	if len(fx.payments.records) != 0 {
		t.Errorf("records = %d, want 0", len(fx.payments.records))
	}
}

func TestReconcileRejectsMissingFields(t *testing.T) {
	fx := newReconcilerFixture(t)

	cb := fx.callback("TXN501", "MIH501", "success")
	cb.Hash = ""
	cb.UDF4 = ""

	_, err := fx.svc.Reconcile(context.Background(), EntryWebhook, cb)
	if !errors.Is(err, utils.ErrMissingField) {
		t.Fatalf("error = %v, want ErrMissingField", err)
	}
	if !strings.Contains(err.Error(), "udf4") || !strings.Contains(err.Error(), "hash") {
		t.Errorf("error %q does not name the missing fields", err)
	}
}

func TestReconcileUnknownUser(t *testing.T) {
	fx := newReconcilerFixture(t)

	cb := fx.callback("TXN502", "MIH502", "success")
	cb.UDF1 = uuid.New().String() // valid id, no such user
	cb.Hash = responseHash(cb, testSalt)

	_, err := fx.svc.Reconcile(context.Background(), EntryWebhook, cb)
	if !errors.Is(err, utils.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
	if len(fx.payments.records) != 0 {
		t.Errorf("records = %d, want 0", len(fx.payments.records))
	}
}

func TestReconcileMalformedUserID(t *testing.T) {
	fx := newReconcilerFixture(t)

	cb := fx.callback("TXN503", "MIH503", "success")
	cb.UDF1 = "not-a-uuid"
	cb.Hash = responseHash(cb, testSalt)

	_, err := fx.svc.Reconcile(context.Background(), EntryWebhook, cb)
	if !errors.Is(err, utils.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
}

func TestReconcileUnknownPlan(t *testing.T) {
	fx := newReconcilerFixture(t)

	cb := fx.callback("TXN504", "MIH504", "success")
	cb.UDF4 = "enterprise"
	cb.Hash = responseHash(cb, testSalt)

	_, err := fx.svc.Reconcile(context.Background(), EntryWebhook, cb)
	if !errors.Is(err, utils.ErrPlanNotFound) {
		t.Fatalf("error = %v, want ErrPlanNotFound", err)
	}
}

func TestReconcileRetriesInvoiceCollision(t *testing.T) {
	fx := newReconcilerFixture(t)
	fx.payments.createErrs = []error{
		&pgconn.PgError{Code: "23505", ConstraintName: "ux_payment_records_invoice_number"},
	}

	res, err := fx.svc.Reconcile(context.Background(), EntryWebhook, fx.callback("TXN600", "MIH600", "success"))
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if !res.Settled || res.InvoiceNumber != "INV-202608-000001" {
		t.Errorf("result = %+v, want settled with INV-202608-000001", res)
	}
	if n := len(fx.payments.byStatus(db_models.PaymentStatusSuccess)); n != 1 {
		t.Errorf("success records = %d, want 1", n)
	}
}

func TestReconcileGivesUpAfterRepeatedCollisions(t *testing.T) {
	fx := newReconcilerFixture(t)
	collision := &pgconn.PgError{Code: "23505", ConstraintName: "ux_payment_records_invoice_number"}
	fx.payments.createErrs = []error{collision, collision, collision}

	_, err := fx.svc.Reconcile(context.Background(), EntryWebhook, fx.callback("TXN601", "MIH601", "success"))
	if !errors.Is(err, utils.ErrPersistenceFailure) {
		t.Fatalf("error = %v, want ErrPersistenceFailure", err)
	}
}

func TestReconcileSurfacesPersistenceFailure(t *testing.T) {
	fx := newReconcilerFixture(t)
	fx.payments.createErrs = []error{errors.New("connection reset")}

	_, err := fx.svc.Reconcile(context.Background(), EntryWebhook, fx.callback("TXN602", "MIH602", "success"))
	if !errors.Is(err, utils.ErrPersistenceFailure) {
		t.Fatalf("error = %v, want ErrPersistenceFailure", err)
	}
	if len(fx.tasks.tasks) != 0 {
		t.Errorf("deferred tasks = %d, want 0", len(fx.tasks.tasks))
	}
}

func TestReconcileFallsBackToMerchantTxnID(t *testing.T) {
	fx := newReconcilerFixture(t)

	res, err := fx.svc.Reconcile(context.Background(), EntryWebhook, fx.callback("TXN700", "", "success"))
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if res.GatewayTxnID != "TXN700" {
		t.Errorf("gateway txn id = %q, want merchant txnid fallback", res.GatewayTxnID)
	}

	dup, err := fx.svc.Reconcile(context.Background(), EntrySuccessRedirect, fx.callback("TXN700", "", "success"))
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if !dup.Duplicate {
		t.Error("second delivery keyed on txnid not detected as duplicate")
	}
}
