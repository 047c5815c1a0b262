package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"library-circulation/config"
	"library-circulation/library"
)

// app holds everything a command needs once the database is open.
type app struct {
	db          *library.Database
	circulation *library.CirculationService
	patrons     *library.PatronService
	payments    *library.PaymentService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	db, err := library.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	opts := []library.Option{
		library.WithLogger(log),
		library.WithLoanPeriod(cfg.Circulation.LoanPeriodDays),
		library.WithBorrowLimit(cfg.Circulation.MaxBorrowedBooks),
	}
	patrons := library.NewPatronService(db, db, opts...)

	return &app{
		db:          db,
		circulation: library.NewCirculationService(db, db, opts...),
		patrons:     patrons,
		// nil gateway selects the built-in sandbox gateway
		payments: library.NewPaymentService(patrons, db, nil, opts...),
	}, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func main() {
	var a *app

	root := &cobra.Command{
		Use:           "library-circulation",
		Short:         "Library circulation: catalog, borrowing, late fees and payments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
	}

	root.AddCommand(
		addBookCmd(&a),
		listCmd(&a),
		searchCmd(&a),
		borrowCmd(&a),
		returnCmd(&a),
		statusCmd(&a),
		lateFeeCmd(&a),
		payCmd(&a),
		refundCmd(&a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addBookCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-book <title> <author> <isbn> <total-copies>",
		Short: "Add a new book to the catalog",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			copies, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("Total copies must be a positive integer.")
			}
			msg, err := (*a).circulation.AddBook(args[0], args[1], args[2], copies)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func listCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog sorted by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := (*a).db.GetAllBooks()
			if err != nil {
				return err
			}
			printBooks(books)
			return nil
		},
	}
}

func searchCmd(a **app) *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the catalog by title, author or ISBN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := (*a).patrons.SearchBooks(args[0], field)
			if err != nil {
				return err
			}
			printBooks(books)
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "by", "title", "search field: title, author or isbn")
	return cmd
}

func borrowCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <patron-id> <book-id>",
		Short: "Borrow a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			msg, err := (*a).circulation.BorrowBook(args[0], bookID)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func returnCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <patron-id> <book-id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			msg, err := (*a).circulation.ReturnBook(args[0], bookID)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func statusCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <patron-id>",
		Short: "Show a patron's loans, history and outstanding fees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := (*a).patrons.StatusReport(args[0])
			if err != nil {
				return err
			}
			printStatus(report)
			return nil
		},
	}
}

func lateFeeCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "late-fee <patron-id> <book-id>",
		Short: "Quote the late fee currently owed on one book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			quote, err := (*a).patrons.CalculateLateFee(args[0], bookID)
			if err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", quote.Status)
			fmt.Printf("Days overdue: %d\n", quote.DaysOverdue)
			fmt.Printf("Fee amount: $%s\n", quote.FeeAmount.StringFixed(2))
			return nil
		},
	}
}

func payCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <patron-id> <book-id>",
		Short: "Pay the late fee owed on one book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseBookID(args[1])
			if err != nil {
				return err
			}
			result := (*a).payments.PayLateFees(args[0], bookID)
			fmt.Println(result.Message)
			if result.Success {
				fmt.Printf("Transaction ID: %s\n", result.TransactionID)
			}
			return nil
		},
	}
}

func refundCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "refund <transaction-id> <amount>",
		Short: "Refund a late fee payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid refund amount %q", args[1])
			}
			result := (*a).payments.RefundLateFeePayment(args[0], amount)
			fmt.Println(result.Message)
			return nil
		},
	}
}

func parseBookID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}

func printBooks(books []*library.Book) {
	if len(books) == 0 {
		fmt.Println("No books found.")
		return
	}
	fmt.Printf("%-5s %-40s %-25s %-15s %-10s\n", "ID", "Title", "Author", "ISBN", "Available")
	fmt.Println(strings.Repeat("-", 100))
	for _, b := range books {
		fmt.Printf("%-5d %-40s %-25s %-15s %d/%d\n",
			b.ID, b.Title, b.Author, b.ISBN, b.AvailableCopies, b.TotalCopies)
	}
}

func printStatus(report *library.PatronStatus) {
	fmt.Printf("Currently borrowed (%d):\n", report.BooksBorrowedCount)
	if len(report.CurrentlyBorrowed) == 0 {
		fmt.Println("  none")
	}
	for _, loan := range report.CurrentlyBorrowed {
		fmt.Printf("  %-5d %-40s %-25s due %s\n", loan.BookID, loan.Title, loan.Author, loan.DueDate)
	}

	fmt.Println("\nBorrowing history:")
	if len(report.BorrowingHistory) == 0 {
		fmt.Println("  none")
	}
	for _, entry := range report.BorrowingHistory {
		returned := entry.ReturnDate
		if returned == "" {
			returned = "-"
		}
		fmt.Printf("  %-5d %-40s borrowed %s due %s returned %-10s fee $%s\n",
			entry.BookID, entry.Title, entry.BorrowDate, entry.DueDate, returned,
			entry.FeeIncurred.StringFixed(2))
	}

	fmt.Printf("\nTotal late fees owed: $%s\n", report.TotalLateFees.StringFixed(2))
}
