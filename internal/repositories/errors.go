package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"

	constraintGatewayTxnID  = "ux_payment_records_gateway_txn_id"
	constraintInvoiceNumber = "ux_payment_records_invoice_number"
)

// IsDuplicateTxnErr reports whether an insert lost the idempotency race on
// the gateway transaction id. The bare gorm.ErrDuplicatedKey fallback covers
// drivers that don't surface a pg error.
func IsDuplicateTxnErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName == constraintGatewayTxnID
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsInvoiceCollisionErr reports a concurrent allocation of the same monthly
// invoice number; callers re-run the claim transaction.
func IsInvoiceCollisionErr(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgUniqueViolation &&
		pgErr.ConstraintName == constraintInvoiceNumber
}
