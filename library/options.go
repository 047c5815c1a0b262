package library

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults for circulation policy. Both can be overridden per service, which
// the CLI wires from configuration.
const (
	DefaultLoanPeriodDays = 14
	DefaultBorrowLimit    = 5
)

// Option configures a service at construction time.
type Option func(*options)

type options struct {
	now            func() time.Time
	log            *logrus.Logger
	loanPeriodDays int
	borrowLimit    int
}

func buildOptions(opts []Option) options {
	o := options{
		now:            time.Now,
		log:            logrus.StandardLogger(),
		loanPeriodDays: DefaultLoanPeriodDays,
		borrowLimit:    DefaultBorrowLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source. Tests use it to move loans into the
// past without sleeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for store failures and gateway activity.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithLoanPeriod sets the loan period in days.
func WithLoanPeriod(days int) Option {
	return func(o *options) {
		if days > 0 {
			o.loanPeriodDays = days
		}
	}
}

// WithBorrowLimit sets how many open loans a patron may hold at once.
func WithBorrowLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.borrowLimit = limit
		}
	}
}
