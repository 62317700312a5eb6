package gateway

import (
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		MerchantKey:        "gtKFFx",
		MerchantSalt:       "eCwWELxi",
		CheckoutURL:        "https://sandbox.gateway.example/_payment",
		ServiceProvider:    "payu_paisa",
		SuccessCallbackURL: "https://api.reportly.example/payments/success",
		FailureCallbackURL: "https://api.reportly.example/payments/failure",
	}
}

func TestIssueSignsTransmittedFields(t *testing.T) {
	issuer := NewOrderIssuer(testConfig())

	order := issuer.Issue(OrderParams{
		AmountMinor: 29900,
		ProductInfo: "Reportly Professional",
		FirstName:   "Asha",
		Email:       "asha@example.com",
		Phone:       "9999999999",
		UserID:      "7f9c24e5-1b3a-4e0e-9d0c-2a6f6a1f9e10",
		PlanName:    "Professional",
		Tier:        "professional",
	})

	// The hash must be computed over exactly the fields the browser posts.
	recomputed := Sign(OrderFields{
		Key:         order.Key,
		TxnID:       order.TxnID,
		Amount:      order.Amount,
		ProductInfo: order.ProductInfo,
		FirstName:   order.FirstName,
		Email:       order.Email,
		UDF1:        order.UDF1,
		UDF2:        order.UDF2,
		UDF3:        order.UDF3,
		UDF4:        order.UDF4,
		UDF5:        order.UDF5,
	}, "eCwWELxi")

	if order.Hash != recomputed {
		t.Errorf("order hash %s does not match digest over transmitted fields %s", order.Hash, recomputed)
	}

	if order.Amount != "299.00" {
		t.Errorf("order amount = %q, want %q", order.Amount, "299.00")
	}
	if order.Key != "gtKFFx" {
		t.Errorf("order key = %q", order.Key)
	}
	if order.UDF1 != "7f9c24e5-1b3a-4e0e-9d0c-2a6f6a1f9e10" {
		t.Errorf("udf1 = %q, want the user id", order.UDF1)
	}
	if order.UDF2 != "Professional" {
		t.Errorf("udf2 = %q, want the plan name", order.UDF2)
	}
	if order.UDF4 != "professional" {
		t.Errorf("udf4 = %q, want the tier", order.UDF4)
	}
	if order.UDF5 != "" {
		t.Errorf("udf5 = %q, want empty", order.UDF5)
	}
	if order.SURL != "https://api.reportly.example/payments/success" {
		t.Errorf("surl = %q", order.SURL)
	}
	if order.FURL != "https://api.reportly.example/payments/failure" {
		t.Errorf("furl = %q", order.FURL)
	}
	if order.ServiceProvider != "payu_paisa" {
		t.Errorf("service_provider = %q", order.ServiceProvider)
	}
}

func TestIssueGeneratesFreshIdentifiers(t *testing.T) {
	issuer := NewOrderIssuer(testConfig())
	params := OrderParams{AmountMinor: 100, ProductInfo: "p", FirstName: "f", Email: "e@x.io"}

	a := issuer.Issue(params)
	b := issuer.Issue(params)

	if a.TxnID == b.TxnID {
		t.Errorf("consecutive orders share txnid %s", a.TxnID)
	}
	if a.UDF3 == b.UDF3 {
		t.Errorf("consecutive orders share order id %s", a.UDF3)
	}
}

func TestNewTransactionID(t *testing.T) {
	id := NewTransactionID()
	if !strings.HasPrefix(id, "TXN") {
		t.Errorf("transaction id %q lacks TXN prefix", id)
	}
	if len(id) < len("TXN")+13+8 {
		t.Errorf("transaction id %q too short", id)
	}
	if id != strings.ToUpper(id) {
		t.Errorf("transaction id %q not uppercase", id)
	}
}

func TestNewOrderID(t *testing.T) {
	id := NewOrderID()
	if !strings.HasPrefix(id, "ORD-") {
		t.Errorf("order id %q lacks ORD- prefix", id)
	}
	if len(id) != len("ORD-")+12 {
		t.Errorf("order id %q has unexpected length %d", id, len(id))
	}
}
