package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"reportly/internal/gateway"
	"reportly/internal/infra"
	"reportly/internal/models/db_models"
	"reportly/internal/models/request_models"
	"reportly/internal/repositories"
	"reportly/pkg/utils"
)

// EntryPoint identifies which of the three racing delivery channels a
// callback arrived on. The reconciliation core is identical for all three;
// only the acknowledgment shape differs, and that lives in the controller.
type EntryPoint string

const (
	EntryWebhook         EntryPoint = "webhook"
	EntrySuccessRedirect EntryPoint = "success_redirect"
	EntryFailureRedirect EntryPoint = "failure_redirect"
)

type ReconcileResult struct {
	TxnID         string
	GatewayTxnID  string
	PlanName      string
	InvoiceNumber string

	// Settled is true when the callback reported a successful payment and a
	// success record exists (fresh or prior). Duplicate marks deliveries that
	// arrived after the race was already won; they perform no side effects.
	Settled   bool
	Duplicate bool
}

type ReconcilerService interface {
	Reconcile(ctx context.Context, entry EntryPoint, cb *request_models.PaymentCallback) (*ReconcileResult, error)
}

type reconcilerService struct {
	gatewayCfg gateway.Config
	txRunner   infra.TxRunner
	payments   repositories.PaymentStore
	ledger     repositories.SubscriptionLedger
	users      repositories.UserRepository
	plans      repositories.PlanRepository
	tasks      TaskRunner
	invoices   InvoiceService
	mail       IMailService
	appName    string

	now func() time.Time
}

func NewReconcilerService(
	gatewayCfg gateway.Config,
	txRunner infra.TxRunner,
	payments repositories.PaymentStore,
	ledger repositories.SubscriptionLedger,
	users repositories.UserRepository,
	plans repositories.PlanRepository,
	tasks TaskRunner,
	invoices InvoiceService,
	mail IMailService,
	appName string,
) ReconcilerService {
	return &reconcilerService{
		gatewayCfg: gatewayCfg,
		txRunner:   txRunner,
		payments:   payments,
		ledger:     ledger,
		users:      users,
		plans:      plans,
		tasks:      tasks,
		invoices:   invoices,
		mail:       mail,
		appName:    appName,
		now:        time.Now,
	}
}

const maxInvoiceRetries = 3

// errClaimLost marks an insert that lost the idempotency race; the winner
// already performed the side effects.
var errClaimLost = errors.New("transaction already claimed")

// Reconcile runs the shared callback algorithm: validate fields, verify the
// signature, then either record a failure or claim the transaction and
// activate the subscription. Whatever channel arrives first performs the
// side effects; every later arrival is a no-op that still acks success.
func (s *reconcilerService) Reconcile(ctx context.Context, entry EntryPoint, cb *request_models.PaymentCallback) (*ReconcileResult, error) {
	if missing := cb.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrMissingField, strings.Join(missing, ", "))
	}

	if !gateway.VerifyCallback(cb.Fields(), s.gatewayCfg.MerchantSalt) {
		log.Printf("reconcile[%s]: signature mismatch for txnid=%s", entry, cb.TxnID)
		return nil, utils.ErrSignatureInvalid
	}

	res := &ReconcileResult{
		TxnID:        cb.TxnID,
		GatewayTxnID: cb.GatewayTxnID(),
		PlanName:     cb.UDF2,
	}

	if !strings.EqualFold(cb.Status, "success") {
		if err := s.recordFailure(ctx, cb, res.GatewayTxnID); err != nil {
			return nil, err
		}
		return res, nil
	}

	// Fast path: already reconciled. The insert below remains the real
	// guard; this read just avoids burning an invoice scan per retry.
	existing, err := s.payments.FindByGatewayTxnID(ctx, res.GatewayTxnID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}
	if existing != nil {
		res.Settled = true
		res.Duplicate = true
		if existing.InvoiceNumber != nil {
			res.InvoiceNumber = *existing.InvoiceNumber
		}
		return res, nil
	}

	outcome, err := s.settle(ctx, cb, res.GatewayTxnID)
	if err != nil {
		if errors.Is(err, errClaimLost) {
			// Lost the race between the fast path and the insert. Surface the
			// winner's invoice number when it is already visible.
			res.Settled = true
			res.Duplicate = true
			if rec, rerr := s.payments.FindByGatewayTxnID(ctx, res.GatewayTxnID); rerr == nil && rec != nil && rec.InvoiceNumber != nil {
				res.InvoiceNumber = *rec.InvoiceNumber
			}
			return res, nil
		}
		return nil, err
	}

	res.Settled = true
	res.InvoiceNumber = outcome.invoiceNumber

	s.enqueueReceipt(outcome)

	log.Printf("reconcile[%s]: settled txnid=%s gateway=%s invoice=%s",
		entry, cb.TxnID, res.GatewayTxnID, res.InvoiceNumber)
	return res, nil
}

type settleOutcome struct {
	record        *db_models.PaymentRecord
	user          *db_models.User
	plan          *db_models.Plan
	invoiceNumber string
	amount        string
}

// settle performs the first-sighting side effects inside ONE database
// transaction: invoice allocation, PaymentRecord insert (the atomic claim),
// subscription activation and the user snapshot update. A failure anywhere
// rolls the claim back, so a webhook retry starts from a clean slate, and a
// duplicate never consumes an invoice slot.
func (s *reconcilerService) settle(ctx context.Context, cb *request_models.PaymentCallback, gatewayTxnID string) (*settleOutcome, error) {
	userID, err := uuid.Parse(cb.UDF1)
	if err != nil {
		return nil, fmt.Errorf("%w: udf1 %q is not a user id", utils.ErrUserNotFound, cb.UDF1)
	}

	amountMinor, err := gateway.ParseAmount(cb.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrMissingField, err)
	}

	var out settleOutcome
	for attempt := 0; attempt < maxInvoiceRetries; attempt++ {
		err = s.txRunner.RunInTransaction(ctx, func(tx *gorm.DB) error {
			payments := s.payments.Tx(tx)
			ledger := s.ledger.Tx(tx)
			users := s.users.Tx(tx)
			plans := s.plans.Tx(tx)

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("%w: %s", utils.ErrUserNotFound, userID)
			}

			plan, err := plans.FindByCode(ctx, cb.UDF4)
			if err != nil {
				return err
			}
			if plan == nil {
				return fmt.Errorf("%w: tier %q", utils.ErrPlanNotFound, cb.UDF4)
			}

			now := s.now()
			invoiceNumber, err := payments.NextInvoiceNumber(ctx, now)
			if err != nil {
				return err
			}

			paidAt := now.Unix()
			rec := &db_models.PaymentRecord{
				UserID:         user.ID,
				GatewayOrderID: cb.UDF3,
				GatewayTxnID:   gatewayTxnID,
				AmountMinor:    amountMinor,
				Currency:       plan.Currency,
				Status:         db_models.PaymentStatusSuccess,
				PaymentMethod:  cb.Mode,
				InvoiceNumber:  &invoiceNumber,
				PaidAt:         &paidAt,
				Payload:        rawPayload(cb),
			}

			if err := payments.Create(ctx, rec); err != nil {
				if repositories.IsDuplicateTxnErr(err) {
					return errClaimLost
				}
				return err
			}

			ends := plan.PeriodEnd(now)
			sub, err := ledger.Activate(ctx, user.ID, plan.ID, plan.Code, now.Unix(), ends.Unix())
			if err != nil {
				return err
			}

			if err := payments.AttachSubscription(ctx, rec.ID, sub.ID); err != nil {
				return err
			}
			rec.SubscriptionID = &sub.ID

			if err := users.SetSubscription(ctx, user.ID, sub.ID, plan.Code, db_models.SubStatusActive); err != nil {
				return err
			}

			out = settleOutcome{
				record:        rec,
				user:          user,
				plan:          plan,
				invoiceNumber: invoiceNumber,
				amount:        cb.Amount,
			}
			return nil
		})

		if err == nil {
			return &out, nil
		}
		if repositories.IsInvoiceCollisionErr(err) {
			continue
		}
		if errors.Is(err, errClaimLost) ||
			errors.Is(err, utils.ErrUserNotFound) ||
			errors.Is(err, utils.ErrPlanNotFound) ||
			errors.Is(err, utils.ErrMissingField) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}

	return nil, fmt.Errorf("%w: invoice allocation contention for %s", utils.ErrPersistenceFailure, gatewayTxnID)
}

// recordFailure books a failed settlement attempt. No invoice number, no
// subscription; an already-existing record for the same gateway txn id
// means this delivery is a duplicate and there is nothing left to do.
func (s *reconcilerService) recordFailure(ctx context.Context, cb *request_models.PaymentCallback, gatewayTxnID string) error {
	userID, _ := uuid.Parse(cb.UDF1)
	amountMinor, _ := gateway.ParseAmount(cb.Amount)

	rec := &db_models.PaymentRecord{
		UserID:         userID,
		GatewayOrderID: cb.UDF3,
		GatewayTxnID:   gatewayTxnID,
		AmountMinor:    amountMinor,
		Status:         db_models.PaymentStatusFailed,
		PaymentMethod:  cb.Mode,
		FailureReason:  cb.ErrorMessage,
		ErrorCode:      cb.Error,
		Payload:        rawPayload(cb),
	}

	if err := s.payments.Create(ctx, rec); err != nil {
		if repositories.IsDuplicateTxnErr(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", utils.ErrPersistenceFailure, err)
	}
	return nil
}

// enqueueReceipt hands the invoice render + email off to the deferred
// runner. By this point the financial state is committed; a failure here is
// terminal for the attempt and must never resurface as a reconcile error.
func (s *reconcilerService) enqueueReceipt(out *settleOutcome) {
	user := out.user
	plan := out.plan
	rec := out.record
	invoiceNumber := out.invoiceNumber
	amount := out.amount
	issuedAt := s.now()
	appName := s.appName

	s.tasks.Enqueue(Task{
		Name: "payment-receipt:" + invoiceNumber,
		Run: func(ctx context.Context) error {
			doc, err := s.invoices.Render(InvoiceData{
				InvoiceNumber: invoiceNumber,
				CustomerName:  user.Name,
				CustomerEmail: user.Email,
				PlanName:      plan.Name,
				Amount:        amount,
				Currency:      plan.Currency,
				TxnID:         rec.GatewayOrderID,
				GatewayTxnID:  rec.GatewayTxnID,
				IssuedAt:      issuedAt,
				AppName:       appName,
			})
			if err != nil {
				return fmt.Errorf("render invoice %s: %w", invoiceNumber, err)
			}

			subject := fmt.Sprintf("Payment received - %s", plan.Name)
			intro := fmt.Sprintf("Thanks for subscribing to %s. Your payment of %s %s has been received; invoice %s is attached.",
				plan.Name, amount, plan.Currency, invoiceNumber)
			if err := s.mail.SendPaymentReceipt(user.Email, subject, intro, invoiceNumber+".html", doc); err != nil {
				return fmt.Errorf("send receipt %s: %w", invoiceNumber, err)
			}
			return nil
		},
	})
}

func rawPayload(cb *request_models.PaymentCallback) datatypes.JSON {
	b, err := json.Marshal(cb)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
