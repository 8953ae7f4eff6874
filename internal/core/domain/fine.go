package domain

import "github.com/shopspring/decimal"

// Fine is a penalty owed by a patron. A fully paid fine keeps its record with
// a zero amount.
type Fine struct {
	ID       string
	PatronID string
	Amount   decimal.Decimal
	Paid     bool
}

// Outstanding is the amount still owed on the fine.
func (f Fine) Outstanding() decimal.Decimal {
	if f.Paid {
		return decimal.Zero
	}
	return f.Amount
}

// RoundMoney rounds an amount to cents, the precision every store keeps.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
