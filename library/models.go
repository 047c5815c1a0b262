package library

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book represents a catalog entry and its current copy counts. Copy counts
// only move through borrow (-1) and return (+1); the store guarantees
// 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// BorrowRecord is one loan by a patron. A nil ReturnDate means the loan is
// still open. Records are created on borrow, closed once on return, and
// never deleted.
type BorrowRecord struct {
	ID         int64      `json:"id"`
	PatronID   string     `json:"patron_id"`
	BookID     int64      `json:"book_id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// BorrowedBook is the ledger's joined view of a single open loan, with the
// overdue flag derived at read time.
type BorrowedBook struct {
	BookID     int64     `json:"book_id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	BorrowDate time.Time `json:"borrow_date"`
	DueDate    time.Time `json:"due_date"`
	IsOverdue  bool      `json:"is_overdue"`
}

// FeeStatus labels the outcome of a late-fee calculation.
type FeeStatus string

const (
	FeeStatusOnTime        FeeStatus = "on time"
	FeeStatusOverdue       FeeStatus = "overdue"
	FeeStatusInvalidPatron FeeStatus = "invalid patron ID"
	FeeStatusInvalidBook   FeeStatus = "invalid book ID"
	FeeStatusNoRecord      FeeStatus = "no borrow record"
)

// FeeQuote is a computed (never stored) late-fee amount for one loan.
type FeeQuote struct {
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	DaysOverdue int             `json:"days_overdue"`
	Status      FeeStatus       `json:"status"`
}

// CurrentLoan is one currently-borrowed entry in a patron status report.
// DueDate is formatted YYYY-MM-DD, as in all user-facing output.
type CurrentLoan struct {
	BookID  int64  `json:"book_id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	DueDate string `json:"due_date"`
}

// HistoryEntry is one row of a patron's full borrowing history, annotated
// with the fee incurred on that loan. ReturnDate is empty while the loan is
// open.
type HistoryEntry struct {
	BookID      int64           `json:"book_id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	BorrowDate  string          `json:"borrow_date"`
	DueDate     string          `json:"due_date"`
	ReturnDate  string          `json:"return_date,omitempty"`
	FeeIncurred decimal.Decimal `json:"fee_incurred"`
}

// PatronStatus aggregates a patron's open loans, history and outstanding
// fees. The system does not track payments, so TotalLateFees is the sum of
// every computed fee across history.
type PatronStatus struct {
	CurrentlyBorrowed  []CurrentLoan   `json:"currently_borrowed"`
	TotalLateFees      decimal.Decimal `json:"total_late_fees"`
	BooksBorrowedCount int             `json:"books_borrowed_count"`
	BorrowingHistory   []HistoryEntry  `json:"borrowing_history"`
}

// PaymentResult is the outcome of a late-fee charge attempt. TransactionID
// is empty unless the charge succeeded.
type PaymentResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// RefundResult is the outcome of a refund attempt.
type RefundResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DateFormat is how dates appear in all user-facing output.
const DateFormat = "2006-01-02"
