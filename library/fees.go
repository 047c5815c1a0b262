package library

import (
	"time"

	"github.com/shopspring/decimal"
)

// Overdue fee schedule: the first week past due bills at a discounted daily
// rate, every day after that at the full rate, and the total is capped.
var (
	feeFirstWeekDaily = decimal.RequireFromString("0.50")
	feeLaterDaily     = decimal.RequireFromString("1.00")
	feeCap            = decimal.RequireFromString("15.00")
)

// feeTierDays is how many overdue days bill at the discounted rate.
const feeTierDays = 7

// DaysOverdue reports how many whole days at lies past dueDate, never
// negative. Partial days do not count.
func DaysOverdue(dueDate, at time.Time) int {
	days := int(at.Sub(dueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// OverdueFee computes the late fee owed when a loan due at dueDate is
// settled (or inspected) at the instant at. It is pure: invalid inputs are
// the caller's responsibility. The returned amount is exact; rounding to
// two decimals happens at reporting boundaries.
func OverdueFee(dueDate, at time.Time) (daysOverdue int, fee decimal.Decimal) {
	daysOverdue = DaysOverdue(dueDate, at)
	if daysOverdue == 0 {
		return 0, decimal.Zero
	}

	days := decimal.NewFromInt(int64(daysOverdue))
	if daysOverdue <= feeTierDays {
		fee = days.Mul(feeFirstWeekDaily)
	} else {
		firstWeek := decimal.NewFromInt(feeTierDays).Mul(feeFirstWeekDaily)
		rest := days.Sub(decimal.NewFromInt(feeTierDays)).Mul(feeLaterDaily)
		fee = firstWeek.Add(rest)
	}

	if fee.GreaterThan(feeCap) {
		fee = feeCap
	}
	return daysOverdue, fee
}
