package library

import "time"

// CatalogStore is the capability the circulation engine uses to read and
// mutate the book catalog. Lookups return (nil, nil) when no book matches;
// a non-nil error always means the store itself failed.
type CatalogStore interface {
	// InsertBook adds a book and returns its store-assigned id.
	InsertBook(title, author, isbn string, totalCopies, availableCopies int) (int64, error)

	GetBookByID(id int64) (*Book, error)
	GetBookByISBN(isbn string) (*Book, error)

	// GetAllBooks lists the whole catalog sorted by title.
	GetAllBooks() ([]*Book, error)

	// UpdateBookAvailability adjusts available_copies by delta. The store
	// rejects any adjustment that would leave the count below zero or above
	// total_copies.
	UpdateBookAvailability(bookID int64, delta int) error
}

// BorrowLedger is the capability holding borrow records. Like CatalogStore,
// it owns all loan state; the services keep none between calls.
type BorrowLedger interface {
	InsertBorrowRecord(patronID string, bookID int64, borrowDate, dueDate time.Time) error

	// UpdateBorrowRecordReturnDate closes the patron's open record for the
	// book. It fails if no open record exists.
	UpdateBorrowRecordReturnDate(patronID string, bookID int64, returnDate time.Time) error

	// GetPatronBorrowedBooks returns the patron's open loans joined with
	// title/author, each carrying a derived IsOverdue flag.
	GetPatronBorrowedBooks(patronID string) ([]*BorrowedBook, error)

	// GetPatronBorrowCount counts the patron's open loans.
	GetPatronBorrowCount(patronID string) (int, error)

	// GetPatronBorrowHistory returns every record for the patron, open or
	// closed, ordered by borrow date ascending.
	GetPatronBorrowHistory(patronID string) ([]*BorrowRecord, error)
}
