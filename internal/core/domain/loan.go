package domain

import "time"

type Loan struct {
	ID         string
	PatronID   string
	ItemID     string
	Category   Category
	BorrowedOn time.Time
	DueOn      time.Time
	ReturnedOn *time.Time
}

func (l Loan) Active() bool {
	return l.ReturnedOn == nil
}

func (l Loan) Returned() bool {
	return l.ReturnedOn != nil
}

// Overdue reports whether the loan is unreturned and due strictly before today.
func (l Loan) Overdue(today time.Time) bool {
	return l.Active() && l.DueOn.Before(Day(today))
}

// OverdueDays is the number of whole days between the due date and today,
// zero or negative when the loan is not yet late.
func (l Loan) OverdueDays(today time.Time) int {
	return int(Day(today).Sub(l.DueOn).Hours() / 24)
}

// Day truncates t to its calendar date, expressed as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
