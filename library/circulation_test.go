package library

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCirculation(t *testing.T, opts ...Option) (*Database, *CirculationService) {
	t.Helper()
	db := tempDB(t)
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return db, NewCirculationService(db, db, opts...)
}

func TestAddBookValidation(t *testing.T) {
	_, svc := newCirculation(t)

	longTitle := ""
	for i := 0; i < 201; i++ {
		longTitle += "a"
	}
	longAuthor := longTitle[:101]

	tests := []struct {
		name    string
		title   string
		author  string
		isbn    string
		copies  int
		wantErr string
	}{
		{"empty_title", "", "Author", "1234567890123", 1, "Title is required."},
		{"whitespace_title", "   ", "Author", "1234567890123", 1, "Title is required."},
		{"title_too_long", longTitle, "Author", "1234567890123", 1, "Title must be less than 200 characters."},
		{"empty_author", "Title", "", "1234567890123", 1, "Author is required."},
		{"author_too_long", "Title", longAuthor, "1234567890123", 1, "Author must be less than 100 characters."},
		{"isbn_too_short", "Title", "Author", "123456789012", 1, "ISBN must be exactly 13 digits."},
		{"isbn_too_long", "Title", "Author", "12345678901234", 1, "ISBN must be exactly 13 digits."},
		{"zero_copies", "Title", "Author", "1234567890123", 0, "Total copies must be a positive integer."},
		{"negative_copies", "Title", "Author", "1234567890123", -1, "Total copies must be a positive integer."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddBook(tt.title, tt.author, tt.isbn, tt.copies)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestAddBookSuccess(t *testing.T) {
	db, svc := newCirculation(t)

	msg, err := svc.AddBook("The Great Gatsby", "F. Scott Fitzgerald", "9780743273565", 5)
	require.NoError(t, err)
	assert.Equal(t, `Book "The Great Gatsby" has been successfully added to the catalog.`, msg)

	book, err := db.GetBookByISBN("9780743273565")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, 5, book.TotalCopies)
	assert.Equal(t, 5, book.AvailableCopies)
}

func TestAddBookTrimsTitleAndAuthor(t *testing.T) {
	db, svc := newCirculation(t)

	_, err := svc.AddBook("  To Kill a Mockingbird  ", "  Harper  Lee ", "9780061120084", 2)
	require.NoError(t, err)

	book, err := db.GetBookByISBN("9780061120084")
	require.NoError(t, err)
	require.NotNil(t, book)
	// Leading/trailing whitespace removed, internal spacing preserved.
	assert.Equal(t, "To Kill a Mockingbird", book.Title)
	assert.Equal(t, "Harper  Lee", book.Author)
}

func TestAddBookDuplicateISBN(t *testing.T) {
	_, svc := newCirculation(t)

	_, err := svc.AddBook("First", "Author", "1234567890123", 1)
	require.NoError(t, err)

	_, err = svc.AddBook("Second", "Other Author", "1234567890123", 3)
	require.Error(t, err)
	assert.Equal(t, "A book with this ISBN already exists.", err.Error())
}

func TestAddBookISBNLengthCheckOnly(t *testing.T) {
	_, svc := newCirculation(t)

	// 13 characters pass even when not all digits; only length is enforced.
	_, err := svc.AddBook("Odd ISBN", "Author", "12345678901ab", 1)
	assert.NoError(t, err)
}

func TestBorrowBook(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	db, svc := newCirculation(t, WithClock(clock.Now))

	_, err := svc.AddBook("Dune", "Frank Herbert", "9780441172719", 2)
	require.NoError(t, err)
	book, _ := db.GetBookByISBN("9780441172719")

	msg, err := svc.BorrowBook("123456", book.ID)
	require.NoError(t, err)
	assert.Equal(t, `Successfully borrowed "Dune". Due date: 2026-03-15.`, msg)

	after, _ := db.GetBookByID(book.ID)
	assert.Equal(t, 1, after.AvailableCopies)

	count, _ := db.GetPatronBorrowCount("123456")
	assert.Equal(t, 1, count)
}

func TestBorrowBookInvalidPatron(t *testing.T) {
	db, svc := newCirculation(t)
	svc.AddBook("Dune", "Frank Herbert", "9780441172719", 1)
	book, _ := db.GetBookByISBN("9780441172719")

	for _, patron := range []string{"", "12345", "1234567", "12345a", "abcdef"} {
		_, err := svc.BorrowBook(patron, book.ID)
		require.Error(t, err, "patron %q", patron)
		assert.Equal(t, "Invalid patron ID. Must be exactly 6 digits.", err.Error())
	}

	// Nothing was mutated.
	after, _ := db.GetBookByID(book.ID)
	assert.Equal(t, 1, after.AvailableCopies)
}

func TestBorrowBookNotFound(t *testing.T) {
	_, svc := newCirculation(t)

	_, err := svc.BorrowBook("123456", 999)
	require.Error(t, err)
	assert.Equal(t, "Book not found.", err.Error())
}

func TestBorrowBookNotAvailable(t *testing.T) {
	db, svc := newCirculation(t)
	svc.AddBook("Rare Book", "Author", "1234567890123", 1)
	book, _ := db.GetBookByISBN("1234567890123")

	_, err := svc.BorrowBook("111111", book.ID)
	require.NoError(t, err)

	_, err = svc.BorrowBook("222222", book.ID)
	require.Error(t, err)
	assert.Equal(t, "This book is currently not available.", err.Error())
}

func TestBorrowLimit(t *testing.T) {
	db, svc := newCirculation(t)

	var bookIDs []int64
	for i := 0; i < 6; i++ {
		isbn := fmt.Sprintf("111111111111%d", i)
		_, err := svc.AddBook(fmt.Sprintf("Book %d", i), "Author", isbn, 1)
		require.NoError(t, err)
		book, _ := db.GetBookByISBN(isbn)
		bookIDs = append(bookIDs, book.ID)
	}

	for i := 0; i < 5; i++ {
		_, err := svc.BorrowBook("123456", bookIDs[i])
		require.NoError(t, err, "borrow %d", i)
	}

	// The sixth borrow fails regardless of which book it is.
	_, err := svc.BorrowBook("123456", bookIDs[5])
	require.Error(t, err)
	assert.Equal(t, "You have reached the maximum borrowing limit of 5 books.", err.Error())

	// Another patron is unaffected.
	_, err = svc.BorrowBook("654321", bookIDs[5])
	assert.NoError(t, err)
}

func TestBorrowLimitConfigurable(t *testing.T) {
	db, svc := newCirculation(t, WithBorrowLimit(2))

	for i := 0; i < 3; i++ {
		isbn := fmt.Sprintf("222222222222%d", i)
		svc.AddBook(fmt.Sprintf("Book %d", i), "Author", isbn, 1)
	}
	books, _ := db.GetAllBooks()

	svc.BorrowBook("123456", books[0].ID)
	svc.BorrowBook("123456", books[1].ID)
	_, err := svc.BorrowBook("123456", books[2].ID)
	require.Error(t, err)
	assert.Equal(t, "You have reached the maximum borrowing limit of 2 books.", err.Error())
}

func TestReturnBook(t *testing.T) {
	db, svc := newCirculation(t)
	svc.AddBook("Dune", "Frank Herbert", "9780441172719", 1)
	book, _ := db.GetBookByISBN("9780441172719")

	_, err := svc.BorrowBook("123456", book.ID)
	require.NoError(t, err)

	msg, err := svc.ReturnBook("123456", book.ID)
	require.NoError(t, err)
	assert.Equal(t, `Successfully returned "Dune".`, msg)

	// Borrow and return are inverse operations on availability.
	after, _ := db.GetBookByID(book.ID)
	assert.Equal(t, 1, after.AvailableCopies)

	// Returning the same loan twice fails.
	_, err = svc.ReturnBook("123456", book.ID)
	require.Error(t, err)
	assert.Equal(t, "This book is not borrowed by the patron.", err.Error())
}

func TestReturnBookErrors(t *testing.T) {
	db, svc := newCirculation(t)
	svc.AddBook("Dune", "Frank Herbert", "9780441172719", 1)
	book, _ := db.GetBookByISBN("9780441172719")

	_, err := svc.ReturnBook("12345", book.ID)
	require.Error(t, err)
	assert.Equal(t, "Invalid patron ID. Must be exactly 6 digits.", err.Error())

	_, err = svc.ReturnBook("123456", 999)
	require.Error(t, err)
	assert.Equal(t, "Book not found.", err.Error())

	// Never borrowed.
	_, err = svc.ReturnBook("123456", book.ID)
	require.Error(t, err)
	assert.Equal(t, "This book is not borrowed by the patron.", err.Error())

	// Borrowed by somebody else.
	_, err = svc.BorrowBook("111111", book.ID)
	require.NoError(t, err)
	_, err = svc.ReturnBook("123456", book.ID)
	require.Error(t, err)
	assert.Equal(t, "This book is not borrowed by the patron.", err.Error())
}
