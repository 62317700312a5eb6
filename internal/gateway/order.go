package gateway

// Config is the gateway half of the service configuration, built once at
// startup and injected; no env reads happen past bootstrap.
type Config struct {
	MerchantKey     string
	MerchantSalt    string // secret used to sign orders and verify callbacks
	CheckoutURL     string // hosted checkout endpoint the browser form posts to
	ServiceProvider string // e.g. "payu_paisa"

	SuccessCallbackURL string // surl: our /payments/success
	FailureCallbackURL string // furl: our /payments/failure
}

// SignedOrder is the browser form payload for checkout initiation. Field
// names match the gateway's form contract.
type SignedOrder struct {
	Key             string `json:"key"`
	TxnID           string `json:"txnid"`
	Amount          string `json:"amount"`
	ProductInfo     string `json:"productinfo"`
	FirstName       string `json:"firstname"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Hash            string `json:"hash"`
	UDF1            string `json:"udf1"`
	UDF2            string `json:"udf2"`
	UDF3            string `json:"udf3"`
	UDF4            string `json:"udf4"`
	UDF5            string `json:"udf5"`
	SURL            string `json:"surl"`
	FURL            string `json:"furl"`
	ServiceProvider string `json:"service_provider"`
}

// OrderParams is what the checkout flow knows about the purchase.
type OrderParams struct {
	AmountMinor int64
	ProductInfo string
	FirstName   string
	Email       string
	Phone       string
	UserID      string // udf1
	PlanName    string // udf2
	Tier        string // udf4
}

type OrderIssuer struct {
	cfg Config
}

func NewOrderIssuer(cfg Config) *OrderIssuer {
	return &OrderIssuer{cfg: cfg}
}

// Issue builds a signed, immutable order. The signature binds every field,
// and the amount string signed here is the amount string transmitted.
func (o *OrderIssuer) Issue(p OrderParams) SignedOrder {
	fields := OrderFields{
		Key:         o.cfg.MerchantKey,
		TxnID:       NewTransactionID(),
		Amount:      FormatAmount(p.AmountMinor),
		ProductInfo: p.ProductInfo,
		FirstName:   p.FirstName,
		Email:       p.Email,
		UDF1:        p.UserID,
		UDF2:        p.PlanName,
		UDF3:        NewOrderID(),
		UDF4:        p.Tier,
	}

	return SignedOrder{
		Key:             fields.Key,
		TxnID:           fields.TxnID,
		Amount:          fields.Amount,
		ProductInfo:     fields.ProductInfo,
		FirstName:       fields.FirstName,
		Email:           fields.Email,
		Phone:           p.Phone,
		Hash:            Sign(fields, o.cfg.MerchantSalt),
		UDF1:            fields.UDF1,
		UDF2:            fields.UDF2,
		UDF3:            fields.UDF3,
		UDF4:            fields.UDF4,
		UDF5:            fields.UDF5,
		SURL:            o.cfg.SuccessCallbackURL,
		FURL:            o.cfg.FailureCallbackURL,
		ServiceProvider: o.cfg.ServiceProvider,
	}
}
