package request_models

import (
	"reportly/internal/gateway"
)

// PaymentCallback is the shared field contract of all three gateway entry
// points (webhook, success redirect, failure redirect). The gateway posts
// form-encoded; the webhook may also post JSON.
type PaymentCallback struct {
	Key         string `form:"key" json:"key"`
	TxnID       string `form:"txnid" json:"txnid"`
	Amount      string `form:"amount" json:"amount"`
	ProductInfo string `form:"productinfo" json:"productinfo"`
	FirstName   string `form:"firstname" json:"firstname"`
	Email       string `form:"email" json:"email"`
	Phone       string `form:"phone" json:"phone"`
	Status      string `form:"status" json:"status"`
	Hash        string `form:"hash" json:"hash"`

	// Gateway-side transaction id; globally unique when present.
	MihpayID string `form:"mihpayid" json:"mihpayid"`

	UDF1 string `form:"udf1" json:"udf1"` // userId
	UDF2 string `form:"udf2" json:"udf2"` // plan name
	UDF3 string `form:"udf3" json:"udf3"` // merchant order id
	UDF4 string `form:"udf4" json:"udf4"` // tier
	UDF5 string `form:"udf5" json:"udf5"`

	Mode         string `form:"mode" json:"mode"`
	BankCode     string `form:"bankcode" json:"bankcode"`
	CardNum      string `form:"cardnum" json:"cardnum"`
	NameOnCard   string `form:"name_on_card" json:"name_on_card"`
	Error        string `form:"error" json:"error"`
	ErrorMessage string `form:"error_Message" json:"error_Message"`
}

// MissingFields lists absent required fields; validation is manual so every
// entry point rejects with the same 400 shape instead of gin's binding error.
func (c *PaymentCallback) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"key", c.Key},
		{"txnid", c.TxnID},
		{"amount", c.Amount},
		{"productinfo", c.ProductInfo},
		{"firstname", c.FirstName},
		{"email", c.Email},
		{"status", c.Status},
		{"udf1", c.UDF1},
		{"udf2", c.UDF2},
		{"udf3", c.UDF3},
		{"udf4", c.UDF4},
		{"hash", c.Hash},
	}

	var missing []string
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// GatewayTxnID is the idempotency key: the gateway's own id when present,
// falling back to the merchant txnid for sandboxes that omit mihpayid.
func (c *PaymentCallback) GatewayTxnID() string {
	if c.MihpayID != "" {
		return c.MihpayID
	}
	return c.TxnID
}

// Fields maps the callback onto the signable field set.
func (c *PaymentCallback) Fields() gateway.CallbackFields {
	return gateway.CallbackFields{
		OrderFields: gateway.OrderFields{
			Key:         c.Key,
			TxnID:       c.TxnID,
			Amount:      c.Amount,
			ProductInfo: c.ProductInfo,
			FirstName:   c.FirstName,
			Email:       c.Email,
			UDF1:        c.UDF1,
			UDF2:        c.UDF2,
			UDF3:        c.UDF3,
			UDF4:        c.UDF4,
			UDF5:        c.UDF5,
		},
		Status: c.Status,
		Hash:   c.Hash,
	}
}
