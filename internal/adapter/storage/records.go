package storage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

const dateLayout = "2006-01-02"

// SQL stores keep money in minor units (cents).
func toMinor(d decimal.Decimal) int64 {
	return domain.RoundMoney(d).Shift(2).IntPart()
}

func fromMinor(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.Day(*t)
	return &d
}
