package services

import (
	"bytes"
	"html/template"
	"time"
)

// InvoiceData feeds the rendered invoice document attached to the receipt
// email. PDF conversion happens in the document pipeline downstream; the
// HTML document is the artifact this service owns.
type InvoiceData struct {
	InvoiceNumber string
	CustomerName  string
	CustomerEmail string
	PlanName      string
	Amount        string // two-decimal display string
	Currency      string
	TxnID         string
	GatewayTxnID  string
	IssuedAt      time.Time
	AppName       string
}

type InvoiceService interface {
	Render(data InvoiceData) ([]byte, error)
}

type invoiceService struct {
	tpl *template.Template
}

func NewInvoiceService() InvoiceService {
	return &invoiceService{
		tpl: template.Must(template.New("invoice").Parse(invoiceHTMLTemplate)),
	}
}

func (s *invoiceService) Render(data InvoiceData) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.tpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const invoiceHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Invoice {{.InvoiceNumber}}</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; color: #0f172a; margin: 40px; }
    .head { display: flex; justify-content: space-between; margin-bottom: 32px; }
    .brand { font-size: 22px; font-weight: 700; color: #2563eb; }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 10px 8px; border-bottom: 1px solid #e2e8f0; }
    th { color: #64748b; font-size: 12px; text-transform: uppercase; letter-spacing: 0.5px; }
    .total td { font-weight: 700; border-bottom: none; }
    .meta { color: #64748b; font-size: 13px; margin-top: 24px; }
  </style>
</head>
<body>
  <div class="head">
    <div class="brand">{{.AppName}}</div>
    <div>
      <div><strong>Invoice {{.InvoiceNumber}}</strong></div>
      <div>{{.IssuedAt.Format "02 Jan 2006"}}</div>
    </div>
  </div>
  <p>Billed to: {{.CustomerName}} &lt;{{.CustomerEmail}}&gt;</p>
  <table>
    <tr><th>Description</th><th>Amount</th></tr>
    <tr><td>{{.PlanName}} subscription</td><td>{{.Amount}} {{.Currency}}</td></tr>
    <tr class="total"><td>Total paid</td><td>{{.Amount}} {{.Currency}}</td></tr>
  </table>
  <p class="meta">
    Transaction {{.TxnID}} / gateway reference {{.GatewayTxnID}}.<br>
    This invoice confirms a completed payment; no further action is required.
  </p>
</body>
</html>`
