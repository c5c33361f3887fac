package domain

import (
	"fmt"
	"time"
)

type ExportOutcome string

const (
	ExportSucceeded ExportOutcome = "success"
	ExportFailed    ExportOutcome = "failure"
)

// ExportRecord is one accountant-export attempt for a reference month.
type ExportRecord struct {
	ID             int64         `json:"id"`
	ReferenceMonth Month         `json:"reference_month"`
	SentAt         time.Time     `json:"sent_at"`
	Outcome        ExportOutcome `json:"outcome"`
	Operator       string        `json:"operator"`
	Message        string        `json:"message,omitempty"`
}

// Month is a calendar month, formatted as YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) LastDay() time.Time {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC)
}

func (m Month) Previous() Month {
	return MonthOf(m.FirstDay().AddDate(0, -1, 0))
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
