package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// OrderFields are the fields bound by the gateway signature. The five UDF
// slots carry userId, plan name, merchant order id and tier through the
// round trip; udf5 is unused but still participates in the digest.
type OrderFields struct {
	Key         string
	TxnID       string
	Amount      string // two-decimal string, byte-identical to what is transmitted
	ProductInfo string
	FirstName   string
	Email       string
	UDF1        string
	UDF2        string
	UDF3        string
	UDF4        string
	UDF5        string
}

// CallbackFields are OrderFields as echoed back by the gateway, plus the
// settlement status and the hash the gateway computed over them.
type CallbackFields struct {
	OrderFields
	Status string
	Hash   string
}

// Sign computes the request digest over the gateway's forward field order.
// Five reserved empty fields sit between udf5 and the salt; the gateway
// rejects hashes built without them.
func Sign(f OrderFields, salt string) string {
	parts := []string{
		f.Key, f.TxnID, f.Amount, f.ProductInfo, f.FirstName, f.Email,
		f.UDF1, f.UDF2, f.UDF3, f.UDF4, f.UDF5,
		"", "", "", "", "",
		salt,
	}
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// VerifyCallback recomputes the response digest. The gateway signs responses
// over the REVERSE field order with the status spliced in after the salt;
// this asymmetry is the gateway's contract, not ours. A missing hash is a
// verification failure, never a pass.
func VerifyCallback(f CallbackFields, salt string) bool {
	if f.Hash == "" {
		return false
	}
	parts := []string{
		salt, f.Status,
		"", "", "", "", "",
		f.UDF5, f.UDF4, f.UDF3, f.UDF2, f.UDF1,
		f.Email, f.FirstName, f.ProductInfo, f.Amount, f.TxnID, f.Key,
	}
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(f.Hash))) == 1
}

// FormatAmount renders minor units with exactly two decimals, e.g. 29900 ->
// "299.00". The same string must be signed and transmitted.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// ParseAmount reverses FormatAmount. It accepts "299", "299.0" and "299.00"
// since sandbox gateways are sloppy about trailing zeros.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	whole, frac, _ := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if units < 0 {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	switch len(frac) {
	case 0:
		return units * 100, nil
	case 1:
		frac += "0"
	case 2:
	default:
		return 0, fmt.Errorf("invalid amount %q: more than two decimals", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return units*100 + cents, nil
}
