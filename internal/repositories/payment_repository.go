package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reportly/internal/models/db_models"
)

// PaymentStore is the persistence surface for settlement attempts. Create
// races are resolved by the unique index on the gateway transaction id;
// callers classify failures with IsDuplicateTxnErr / IsInvoiceCollisionErr.
type PaymentStore interface {
	Tx(tx *gorm.DB) PaymentStore
	FindByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*db_models.PaymentRecord, error)
	Create(ctx context.Context, rec *db_models.PaymentRecord) error
	AttachSubscription(ctx context.Context, paymentID, subscriptionID uuid.UUID) error
	NextInvoiceNumber(ctx context.Context, now time.Time) (string, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentStore {
	return &paymentRepository{db: db}
}

func (p *paymentRepository) Tx(tx *gorm.DB) PaymentStore {
	if tx == nil {
		return p
	}
	return &paymentRepository{db: tx}
}

func (p *paymentRepository) FindByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*db_models.PaymentRecord, error) {
	var rec db_models.PaymentRecord
	err := p.db.WithContext(ctx).First(&rec, "gateway_txn_id = ?", gatewayTxnID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rec, nil
}

func (p *paymentRepository) Create(ctx context.Context, rec *db_models.PaymentRecord) error {
	return p.db.WithContext(ctx).Create(rec).Error
}

func (p *paymentRepository) AttachSubscription(ctx context.Context, paymentID, subscriptionID uuid.UUID) error {
	return p.db.WithContext(ctx).
		Model(&db_models.PaymentRecord{}).
		Where("id = ?", paymentID).
		Update("subscription_id", subscriptionID).Error
}

// NextInvoiceNumber derives INV-YYYYMM-NNNNNN from the month's highest
// committed invoice number. Must run inside the claim transaction; the
// unique index on invoice_number closes the remaining race and the caller
// retries on IsInvoiceCollisionErr.
func (p *paymentRepository) NextInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", now.UTC().Format("200601"))

	var last sql.NullString
	err := p.db.WithContext(ctx).
		Model(&db_models.PaymentRecord{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Select("MAX(invoice_number)").
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if last.Valid && len(last.String) > len(prefix) {
		n, err := strconv.Atoi(last.String[len(prefix):])
		if err != nil {
			return "", fmt.Errorf("malformed invoice number %q: %w", last.String, err)
		}
		seq = n + 1
	}

	return fmt.Sprintf("%s%06d", prefix, seq), nil
}
