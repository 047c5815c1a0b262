package library

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeReceipt is the gateway's answer to a charge attempt. Success=false
// is a business decline (e.g. insufficient funds); transport failures travel
// on the error channel instead.
type ChargeReceipt struct {
	Success       bool
	TransactionID string
	Message       string
}

// RefundReceipt is the gateway's answer to a refund attempt.
type RefundReceipt struct {
	Success bool
	Message string
}

// PaymentGateway is the external payment capability. Implementations make a
// single attempt per call; the orchestrator adds no retries. A non-nil error
// is the "gateway blew up" path and must never reach callers of the payment
// service.
type PaymentGateway interface {
	ProcessPayment(patronID string, amount decimal.Decimal, description string) (*ChargeReceipt, error)
	RefundPayment(transactionID string, amount decimal.Decimal) (*RefundReceipt, error)
}

// FeeCalculator is the slice of the patron service the payment flow needs.
type FeeCalculator interface {
	CalculateLateFee(patronID string, bookID int64) (*FeeQuote, error)
}

// ---------------------------------------------------------------------------
// Sandbox gateway
// ---------------------------------------------------------------------------

// SandboxGateway is the default in-process gateway: it approves any
// well-formed charge, remembers what it charged, and refunds against that
// memory. It stands in for a real processor in the CLI and in end-to-end
// tests.
type SandboxGateway struct {
	mu      sync.Mutex
	charges map[string]decimal.Decimal
}

var _ PaymentGateway = (*SandboxGateway)(nil)

// NewSandboxGateway returns an empty sandbox gateway.
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{charges: make(map[string]decimal.Decimal)}
}

// ProcessPayment approves any positive charge for a well-formed patron id
// and issues a fresh transaction id.
func (g *SandboxGateway) ProcessPayment(patronID string, amount decimal.Decimal, description string) (*ChargeReceipt, error) {
	if !validPatronID(patronID) {
		return &ChargeReceipt{Success: false, Message: "Invalid patron ID"}, nil
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return &ChargeReceipt{Success: false, Message: "Payment amount must be positive"}, nil
	}

	txnID := "txn_" + uuid.NewString()
	g.mu.Lock()
	g.charges[txnID] = amount
	g.mu.Unlock()

	return &ChargeReceipt{
		Success:       true,
		TransactionID: txnID,
		Message:       fmt.Sprintf("Charged $%s for %s", amount.StringFixed(2), description),
	}, nil
}

// RefundPayment refunds against a previous sandbox charge. Refunding an
// unknown transaction or more than was charged is a business decline.
func (g *SandboxGateway) RefundPayment(transactionID string, amount decimal.Decimal) (*RefundReceipt, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &RefundReceipt{Success: false, Message: "Refund amount must be positive"}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	charged, ok := g.charges[transactionID]
	if !ok {
		return &RefundReceipt{Success: false, Message: "Transaction not found"}, nil
	}
	if amount.GreaterThan(charged) {
		return &RefundReceipt{Success: false, Message: "Refund amount exceeds original charge"}, nil
	}

	remaining := charged.Sub(amount)
	if remaining.IsZero() {
		delete(g.charges, transactionID)
	} else {
		g.charges[transactionID] = remaining
	}

	return &RefundReceipt{
		Success: true,
		Message: fmt.Sprintf("Refund of $%s processed successfully", amount.StringFixed(2)),
	}, nil
}

// ---------------------------------------------------------------------------
// Payment orchestration
// ---------------------------------------------------------------------------

// PaymentService charges and refunds late fees through a PaymentGateway.
// Every failure mode — unable to quote, nothing owed, missing book, gateway
// decline, gateway error — comes back as a result value; gateway errors
// never propagate.
type PaymentService struct {
	calc    FeeCalculator
	catalog CatalogStore
	gateway PaymentGateway
	opts    options
}

// NewPaymentService wires the orchestrator. A nil gateway selects the
// built-in sandbox gateway, so callers may omit it.
func NewPaymentService(calc FeeCalculator, catalog CatalogStore, gateway PaymentGateway, opts ...Option) *PaymentService {
	if gateway == nil {
		gateway = NewSandboxGateway()
	}
	return &PaymentService{
		calc:    calc,
		catalog: catalog,
		gateway: gateway,
		opts:    buildOptions(opts),
	}
}

// PayLateFees charges the patron's current late fee on one book.
func (s *PaymentService) PayLateFees(patronID string, bookID int64) PaymentResult {
	quote, err := s.calc.CalculateLateFee(patronID, bookID)
	if err != nil || quote == nil {
		if err != nil {
			s.opts.log.WithError(err).Warn("late fee calculation failed")
		}
		return PaymentResult{Message: "Unable to calculate late fees."}
	}

	if quote.FeeAmount.LessThanOrEqual(decimal.Zero) {
		return PaymentResult{Message: "No late fees to pay for this book."}
	}

	book, err := s.catalog.GetBookByID(bookID)
	if err != nil {
		s.opts.log.WithError(err).WithField("book_id", bookID).Warn("book lookup failed")
		return PaymentResult{Message: "Book not found."}
	}
	if book == nil {
		return PaymentResult{Message: "Book not found."}
	}

	description := fmt.Sprintf("Late fees for '%s'", book.Title)
	receipt, err := s.gateway.ProcessPayment(patronID, quote.FeeAmount, description)
	if err != nil {
		s.opts.log.WithError(err).Warn("payment gateway error")
		return PaymentResult{Message: "Payment processing error: " + err.Error()}
	}
	if !receipt.Success {
		return PaymentResult{Message: "Payment failed: " + receipt.Message}
	}

	s.opts.log.WithFields(map[string]interface{}{
		"patron_id":      patronID,
		"book_id":        bookID,
		"amount":         quote.FeeAmount.StringFixed(2),
		"transaction_id": receipt.TransactionID,
	}).Info("late fee payment processed")

	return PaymentResult{
		Success:       true,
		Message:       "Payment successful! " + receipt.Message,
		TransactionID: receipt.TransactionID,
	}
}

// RefundLateFeePayment refunds a previous late-fee charge.
func (s *PaymentService) RefundLateFeePayment(transactionID string, amount decimal.Decimal) RefundResult {
	receipt, err := s.gateway.RefundPayment(transactionID, amount)
	if err != nil {
		s.opts.log.WithError(err).Warn("refund gateway error")
		return RefundResult{Message: "Refund processing error: " + err.Error()}
	}
	if !receipt.Success {
		return RefundResult{Message: "Refund failed: " + receipt.Message}
	}

	s.opts.log.WithFields(map[string]interface{}{
		"transaction_id": transactionID,
		"amount":         amount.StringFixed(2),
	}).Info("late fee refund processed")

	return RefundResult{Success: true, Message: receipt.Message}
}
