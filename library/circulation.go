package library

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// CirculationService enforces the borrowing rules and orchestrates the two
// stores for add/borrow/return. It holds no state of its own between calls.
//
// Rule violations come back as plain error values whose text is the
// user-facing message; callers print err.Error() as-is. Store failures are
// logged with their cause and surfaced as generic database messages.
type CirculationService struct {
	catalog CatalogStore
	ledger  BorrowLedger
	opts    options
}

// NewCirculationService wires the engine to its stores.
func NewCirculationService(catalog CatalogStore, ledger BorrowLedger, opts ...Option) *CirculationService {
	return &CirculationService{
		catalog: catalog,
		ledger:  ledger,
		opts:    buildOptions(opts),
	}
}

// validPatronID reports whether id is exactly six digit characters.
func validPatronID(id string) bool {
	if len(id) != 6 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var errInvalidPatronID = errors.New("Invalid patron ID. Must be exactly 6 digits.")

// AddBook validates and inserts a new catalog entry with all copies
// available. Title and author are trimmed before storing. The first failing
// check wins. The ISBN check is length-only; digit composition is not
// enforced here.
func (s *CirculationService) AddBook(title, author, isbn string, totalCopies int) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", errors.New("Title is required.")
	}
	if len(strings.TrimSpace(title)) > 200 {
		return "", errors.New("Title must be less than 200 characters.")
	}
	if strings.TrimSpace(author) == "" {
		return "", errors.New("Author is required.")
	}
	if len(strings.TrimSpace(author)) > 100 {
		return "", errors.New("Author must be less than 100 characters.")
	}
	if len(isbn) != 13 {
		return "", errors.New("ISBN must be exactly 13 digits.")
	}
	if totalCopies <= 0 {
		return "", errors.New("Total copies must be a positive integer.")
	}

	existing, err := s.catalog.GetBookByISBN(isbn)
	if err != nil {
		s.opts.log.WithError(err).Warn("isbn lookup failed")
		return "", errors.New("Database error occurred while adding the book.")
	}
	if existing != nil {
		return "", errors.New("A book with this ISBN already exists.")
	}

	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if _, err := s.catalog.InsertBook(title, author, isbn, totalCopies, totalCopies); err != nil {
		s.opts.log.WithError(err).WithField("isbn", isbn).Warn("insert book failed")
		return "", errors.New("Database error occurred while adding the book.")
	}

	return fmt.Sprintf("Book %q has been successfully added to the catalog.", title), nil
}

// BorrowBook lends a book to a patron: the availability count drops by one
// and an open borrow record is created, due after the loan period.
//
// The record insert and the availability decrement are one logical unit but
// not one transaction; if the decrement fails after the insert the operation
// reports failure and the record is left behind. The store's guarded
// decrement does close the last-copy race, so the count itself never goes
// negative.
func (s *CirculationService) BorrowBook(patronID string, bookID int64) (string, error) {
	if !validPatronID(patronID) {
		return "", errInvalidPatronID
	}

	book, err := s.catalog.GetBookByID(bookID)
	if err != nil {
		s.opts.log.WithError(err).WithField("book_id", bookID).Warn("book lookup failed")
		return "", errors.New("Database error occurred while looking up the book.")
	}
	if book == nil {
		return "", errors.New("Book not found.")
	}
	if book.AvailableCopies <= 0 {
		return "", errors.New("This book is currently not available.")
	}

	count, err := s.ledger.GetPatronBorrowCount(patronID)
	if err != nil {
		s.opts.log.WithError(err).WithField("patron_id", patronID).Warn("borrow count failed")
		return "", errors.New("Database error occurred while checking patron records.")
	}
	if count >= s.opts.borrowLimit {
		return "", errors.Errorf("You have reached the maximum borrowing limit of %d books.", s.opts.borrowLimit)
	}

	borrowDate := s.opts.now()
	dueDate := borrowDate.AddDate(0, 0, s.opts.loanPeriodDays)

	if err := s.ledger.InsertBorrowRecord(patronID, bookID, borrowDate, dueDate); err != nil {
		s.opts.log.WithError(err).Warn("insert borrow record failed")
		return "", errors.New("Database error occurred while creating borrow record.")
	}
	if err := s.catalog.UpdateBookAvailability(bookID, -1); err != nil {
		s.opts.log.WithError(err).Warn("availability decrement failed")
		return "", errors.New("Database error occurred while updating book availability.")
	}

	s.opts.log.WithFields(map[string]interface{}{
		"patron_id": patronID,
		"book_id":   bookID,
		"due_date":  dueDate.Format(DateFormat),
	}).Debug("book borrowed")

	return fmt.Sprintf("Successfully borrowed %q. Due date: %s.", book.Title, dueDate.Format(DateFormat)), nil
}

// ReturnBook closes the patron's open record for the book and puts the copy
// back in circulation. Returning a book the patron does not currently hold
// fails, which also covers a second return of the same loan.
func (s *CirculationService) ReturnBook(patronID string, bookID int64) (string, error) {
	if !validPatronID(patronID) {
		return "", errInvalidPatronID
	}

	book, err := s.catalog.GetBookByID(bookID)
	if err != nil {
		s.opts.log.WithError(err).WithField("book_id", bookID).Warn("book lookup failed")
		return "", errors.New("Database error occurred while looking up the book.")
	}
	if book == nil {
		return "", errors.New("Book not found.")
	}

	borrowed, err := s.ledger.GetPatronBorrowedBooks(patronID)
	if err != nil {
		s.opts.log.WithError(err).WithField("patron_id", patronID).Warn("borrowed books lookup failed")
		return "", errors.New("Database error occurred while checking patron records.")
	}
	var open *BorrowedBook
	for _, bb := range borrowed {
		if bb.BookID == bookID {
			open = bb
			break
		}
	}
	if open == nil {
		return "", errors.New("This book is not borrowed by the patron.")
	}

	if err := s.ledger.UpdateBorrowRecordReturnDate(patronID, bookID, s.opts.now()); err != nil {
		s.opts.log.WithError(err).Warn("close borrow record failed")
		return "", errors.New("Database error occurred while updating borrow record.")
	}
	if err := s.catalog.UpdateBookAvailability(bookID, 1); err != nil {
		s.opts.log.WithError(err).Warn("availability increment failed")
		return "", errors.New("Database error occurred while updating book availability.")
	}

	return fmt.Sprintf("Successfully returned %q.", book.Title), nil
}
