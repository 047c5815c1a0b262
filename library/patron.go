package library

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PatronService answers read-side questions: catalog search, late-fee
// quotes, and the full per-patron status report. It never mutates either
// store.
type PatronService struct {
	catalog CatalogStore
	ledger  BorrowLedger
	opts    options
}

// NewPatronService wires the aggregator to its stores.
func NewPatronService(catalog CatalogStore, ledger BorrowLedger, opts ...Option) *PatronService {
	return &PatronService{
		catalog: catalog,
		ledger:  ledger,
		opts:    buildOptions(opts),
	}
}

// SearchBooks finds catalog entries by "title", "author" or "isbn" (field
// name is case-insensitive). ISBN search is an exact match; title and author
// are case-insensitive substring matches. A blank term or unknown field
// yields an empty result, not an error.
func (s *PatronService) SearchBooks(term, field string) ([]*Book, error) {
	term = strings.TrimSpace(term)
	field = strings.ToLower(strings.TrimSpace(field))
	if term == "" {
		return []*Book{}, nil
	}

	switch field {
	case "isbn":
		book, err := s.catalog.GetBookByISBN(term)
		if err != nil {
			return nil, errors.Wrap(err, "isbn lookup")
		}
		if book == nil {
			return []*Book{}, nil
		}
		return []*Book{book}, nil

	case "title", "author":
		all, err := s.catalog.GetAllBooks()
		if err != nil {
			return nil, errors.Wrap(err, "list catalog")
		}
		needle := strings.ToLower(term)
		results := []*Book{}
		for _, b := range all {
			value := b.Title
			if field == "author" {
				value = b.Author
			}
			if strings.Contains(strings.ToLower(value), needle) {
				results = append(results, b)
			}
		}
		return results, nil

	default:
		return []*Book{}, nil
	}
}

// CalculateLateFee quotes the late fee a patron currently owes on one open
// loan. Invalid inputs and missing records come back as zero-fee quotes with
// an explanatory status rather than errors; only a store failure is an
// error.
func (s *PatronService) CalculateLateFee(patronID string, bookID int64) (*FeeQuote, error) {
	if !validPatronID(patronID) {
		return &FeeQuote{FeeAmount: decimal.Zero, Status: FeeStatusInvalidPatron}, nil
	}

	book, err := s.catalog.GetBookByID(bookID)
	if err != nil {
		return nil, errors.Wrap(err, "book lookup")
	}
	if book == nil {
		return &FeeQuote{FeeAmount: decimal.Zero, Status: FeeStatusInvalidBook}, nil
	}

	borrowed, err := s.ledger.GetPatronBorrowedBooks(patronID)
	if err != nil {
		return nil, errors.Wrap(err, "borrowed books lookup")
	}
	var open *BorrowedBook
	for _, bb := range borrowed {
		if bb.BookID == bookID {
			open = bb
			break
		}
	}
	if open == nil {
		return &FeeQuote{FeeAmount: decimal.Zero, Status: FeeStatusNoRecord}, nil
	}

	if !open.IsOverdue {
		return &FeeQuote{FeeAmount: decimal.Zero, Status: FeeStatusOnTime}, nil
	}

	days, fee := OverdueFee(open.DueDate, s.opts.now())
	return &FeeQuote{
		FeeAmount:   fee.Round(2),
		DaysOverdue: days,
		Status:      FeeStatusOverdue,
	}, nil
}

// StatusReport builds a patron's full picture: open loans, open-loan count,
// the complete borrowing history annotated with per-loan fees, and the sum
// of those fees. Every computed fee counts toward the total — the system
// does not track whether a fee was ever paid.
func (s *PatronService) StatusReport(patronID string) (*PatronStatus, error) {
	if !validPatronID(patronID) {
		return nil, errInvalidPatronID
	}

	borrowed, err := s.ledger.GetPatronBorrowedBooks(patronID)
	if err != nil {
		return nil, errors.Wrap(err, "borrowed books lookup")
	}
	currently := []CurrentLoan{}
	for _, bb := range borrowed {
		currently = append(currently, CurrentLoan{
			BookID:  bb.BookID,
			Title:   bb.Title,
			Author:  bb.Author,
			DueDate: bb.DueDate.Format(DateFormat),
		})
	}

	count, err := s.ledger.GetPatronBorrowCount(patronID)
	if err != nil {
		return nil, errors.Wrap(err, "borrow count")
	}

	records, err := s.ledger.GetPatronBorrowHistory(patronID)
	if err != nil {
		return nil, errors.Wrap(err, "borrow history")
	}

	now := s.opts.now()
	history := []HistoryEntry{}
	total := decimal.Zero
	for _, rec := range records {
		// Closed loans settle at their return date, open loans at now.
		compare := now
		returnDate := ""
		if rec.ReturnDate != nil {
			compare = *rec.ReturnDate
			returnDate = rec.ReturnDate.Format(DateFormat)
		}
		_, fee := OverdueFee(rec.DueDate, compare)
		total = total.Add(fee)

		history = append(history, HistoryEntry{
			BookID:      rec.BookID,
			Title:       rec.Title,
			Author:      rec.Author,
			BorrowDate:  rec.BorrowDate.Format(DateFormat),
			DueDate:     rec.DueDate.Format(DateFormat),
			ReturnDate:  returnDate,
			FeeIncurred: fee.Round(2),
		})
	}

	return &PatronStatus{
		CurrentlyBorrowed:  currently,
		TotalLateFees:      total.Round(2),
		BooksBorrowedCount: count,
		BorrowingHistory:   history,
	}, nil
}
