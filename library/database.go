package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Database provides high-level helpers around a SQLite connection. It
// implements both CatalogStore and BorrowLedger.
type Database struct {
	db *sql.DB

	insertBookStmt   *sql.Stmt
	insertRecordStmt *sql.Stmt
}

var (
	_ CatalogStore = (*Database)(nil)
	_ BorrowLedger = (*Database)(nil)
)

// NewDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.insertBookStmt != nil {
		d.insertBookStmt.Close()
	}
	if d.insertRecordStmt != nil {
		d.insertRecordStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return errors.Wrap(err, "enable WAL")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT NOT NULL UNIQUE,
            total_copies INTEGER NOT NULL,
            available_copies INTEGER NOT NULL,
            CHECK (available_copies >= 0 AND available_copies <= total_copies)
        );`,
		`CREATE TABLE IF NOT EXISTS borrow_records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            patron_id TEXT NOT NULL,
            book_id INTEGER NOT NULL REFERENCES books(id),
            borrow_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME
        );`,
		`CREATE INDEX IF NOT EXISTS idx_borrow_records_patron ON borrow_records(patron_id, return_date);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return errors.Wrap(err, "apply migration")
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return errors.Wrap(err, "record schema version")
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertBookStmt, err = d.db.Prepare(`INSERT INTO books(title,author,isbn,total_copies,available_copies) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertRecordStmt, err = d.db.Prepare(`INSERT INTO borrow_records(patron_id,book_id,borrow_date,due_date) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// CatalogStore
// ---------------------------------------------------------------------------

func (d *Database) InsertBook(title, author, isbn string, totalCopies, availableCopies int) (int64, error) {
	res, err := d.insertBookStmt.Exec(title, author, isbn, totalCopies, availableCopies)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *Database) GetBookByID(id int64) (*Book, error) {
	return d.scanBook(d.db.QueryRow(
		`SELECT id,title,author,isbn,total_copies,available_copies FROM books WHERE id=?`, id))
}

func (d *Database) GetBookByISBN(isbn string) (*Book, error) {
	return d.scanBook(d.db.QueryRow(
		`SELECT id,title,author,isbn,total_copies,available_copies FROM books WHERE isbn=?`, isbn))
}

func (d *Database) scanBook(row *sql.Row) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.TotalCopies, &b.AvailableCopies)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetAllBooks returns the whole catalog sorted by title.
func (d *Database) GetAllBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT id,title,author,isbn,total_copies,available_copies FROM books ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

// UpdateBookAvailability adjusts available_copies by delta in a single
// guarded statement, so a concurrent borrow of the last copy cannot drive
// the count negative.
func (d *Database) UpdateBookAvailability(bookID int64, delta int) error {
	res, err := d.db.Exec(
		`UPDATE books SET available_copies = available_copies + ?
         WHERE id=? AND available_copies + ? BETWEEN 0 AND total_copies`,
		delta, bookID, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Errorf("availability update rejected for book %d (delta %d)", bookID, delta)
	}
	return nil
}

// ---------------------------------------------------------------------------
// BorrowLedger
// ---------------------------------------------------------------------------

func (d *Database) InsertBorrowRecord(patronID string, bookID int64, borrowDate, dueDate time.Time) error {
	_, err := d.insertRecordStmt.Exec(patronID, bookID, borrowDate, dueDate)
	return err
}

// UpdateBorrowRecordReturnDate closes the patron's open record for the book.
// Closing twice fails: a closed record no longer matches.
func (d *Database) UpdateBorrowRecordReturnDate(patronID string, bookID int64, returnDate time.Time) error {
	res, err := d.db.Exec(
		`UPDATE borrow_records SET return_date=? WHERE patron_id=? AND book_id=? AND return_date IS NULL`,
		returnDate, patronID, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Errorf("no open borrow record for patron %s on book %d", patronID, bookID)
	}
	return nil
}

func (d *Database) GetPatronBorrowedBooks(patronID string) ([]*BorrowedBook, error) {
	rows, err := d.db.Query(
		`SELECT r.book_id, b.title, b.author, r.borrow_date, r.due_date
         FROM borrow_records r JOIN books b ON b.id = r.book_id
         WHERE r.patron_id=? AND r.return_date IS NULL
         ORDER BY r.borrow_date`, patronID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	var borrowed []*BorrowedBook
	for rows.Next() {
		var bb BorrowedBook
		if err := rows.Scan(&bb.BookID, &bb.Title, &bb.Author, &bb.BorrowDate, &bb.DueDate); err != nil {
			return nil, err
		}
		bb.IsOverdue = bb.DueDate.Before(now)
		borrowed = append(borrowed, &bb)
	}
	return borrowed, rows.Err()
}

func (d *Database) GetPatronBorrowCount(patronID string) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM borrow_records WHERE patron_id=? AND return_date IS NULL`, patronID).Scan(&n)
	return n, err
}

func (d *Database) GetPatronBorrowHistory(patronID string) ([]*BorrowRecord, error) {
	rows, err := d.db.Query(
		`SELECT r.id, r.patron_id, r.book_id, b.title, b.author, r.borrow_date, r.due_date, r.return_date
         FROM borrow_records r JOIN books b ON b.id = r.book_id
         WHERE r.patron_id=?
         ORDER BY r.borrow_date`, patronID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*BorrowRecord
	for rows.Next() {
		var rec BorrowRecord
		var returned sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.PatronID, &rec.BookID, &rec.Title, &rec.Author,
			&rec.BorrowDate, &rec.DueDate, &returned); err != nil {
			return nil, err
		}
		if returned.Valid {
			t := returned.Time
			rec.ReturnDate = &t
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
