package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-circulation/config"
	"library-circulation/library"
)

// Imports catalog entries from a CSV of title,author,isbn,total_copies.
// Rows that fail validation are reported and skipped; the import continues.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <catalog.csv>\n", os.Args[0])
		os.Exit(2)
	}
	csvPath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	db, err := library.NewDatabase(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	circulation := library.NewCirculationService(db, db,
		library.WithLoanPeriod(cfg.Circulation.LoanPeriodDays),
		library.WithBorrowLimit(cfg.Circulation.MaxBorrowedBooks),
	)

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening catalog file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("Importing catalog from %s...\n", csvPath)

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 4

	successCount := 0
	errorCount := 0
	line := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			fmt.Printf("Line %d: ERROR - %v\n", line, err)
			errorCount++
			continue
		}

		// Allow an optional header row.
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "title") {
			continue
		}

		title, author, isbn := row[0], row[1], strings.TrimSpace(row[2])
		copies, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			fmt.Printf("Line %d: ERROR - total copies %q is not an integer\n", line, row[3])
			errorCount++
			continue
		}

		fmt.Printf("Importing: %s by %s... ", strings.TrimSpace(title), strings.TrimSpace(author))
		if _, err := circulation.AddBook(title, author, isbn, copies); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Println("SUCCESS")
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if successCount > 0 {
		books, err := db.GetAllBooks()
		if err != nil {
			fmt.Printf("Error retrieving books: %v\n", err)
			return
		}
		fmt.Println("\nCatalog:")
		fmt.Printf("%-3s %-50s %-30s %-15s %s\n", "ID", "Title", "Author", "ISBN", "Copies")
		fmt.Println(strings.Repeat("-", 110))
		for _, book := range books {
			fmt.Printf("%-3d %-50s %-30s %-15s %d/%d\n",
				book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30),
				book.ISBN, book.AvailableCopies, book.TotalCopies)
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
