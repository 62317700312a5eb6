package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewTransactionID returns a merchant-side correlation id: millisecond
// timestamp plus a random suffix. This is NOT the idempotency key; the
// gateway's own transaction id is.
func NewTransactionID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), strings.ToUpper(hex.EncodeToString(b[:])))
}

// NewOrderID returns the merchant order id carried in udf3.
func NewOrderID() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return "ORD-" + strings.ToUpper(hex.EncodeToString(b[:]))
}
