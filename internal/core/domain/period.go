package domain

import (
	"fmt"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Period is one accounting month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Validate checks that the month is 1..12 and the year is plausible.
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d out of range", apperrors.ErrValidation, p.Month)
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", apperrors.ErrValidation, p.Year)
	}
	return nil
}

// Start is the first day of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the period in UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// YearPeriods returns the twelve periods of a fiscal year in order.
func YearPeriods(year int) []Period {
	periods := make([]Period, 0, 12)
	for m := time.January; m <= time.December; m++ {
		periods = append(periods, Period{Year: year, Month: m})
	}
	return periods
}

// YearStart and YearEnd bound a fiscal year (calendar year).
func YearStart(year int) time.Time { return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC) }
func YearEnd(year int) time.Time   { return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC) }

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PeriodEventKind distinguishes closures from reopenings in the append-only period log.
type PeriodEventKind string

const (
	PeriodClosed   PeriodEventKind = "CLOSED"
	PeriodReopened PeriodEventKind = "REOPENED"
)

// PeriodClosure records that a month was closed.
type PeriodClosure struct {
	TenantID string    `json:"tenantID"`
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	ClosedAt time.Time `json:"closedAt"`
	ClosedBy string    `json:"closedBy"`
	Implicit bool      `json:"implicit"` // set by year-end closing
}

// PeriodReopen records that a closed month was reopened. Reason is mandatory.
type PeriodReopen struct {
	TenantID   string    `json:"tenantID"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	ReopenedAt time.Time `json:"reopenedAt"`
	ReopenedBy string    `json:"reopenedBy"`
	Reason     string    `json:"reason"`
}

// PeriodEvent is one row of the period log, ordered by Sequence.
type PeriodEvent struct {
	Sequence   int64           `json:"sequence"`
	TenantID   string          `json:"tenantID"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Kind       PeriodEventKind `json:"kind"`
	Actor      string          `json:"actor"`
	Reason     string          `json:"reason,omitempty"`
	Implicit   bool            `json:"implicit"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Closure projects a CLOSED event.
func (ev PeriodEvent) Closure() PeriodClosure {
	return PeriodClosure{TenantID: ev.TenantID, Year: ev.Year, Month: ev.Month, ClosedAt: ev.OccurredAt, ClosedBy: ev.Actor, Implicit: ev.Implicit}
}

// Reopen projects a REOPENED event.
func (ev PeriodEvent) Reopen() PeriodReopen {
	return PeriodReopen{TenantID: ev.TenantID, Year: ev.Year, Month: ev.Month, ReopenedAt: ev.OccurredAt, ReopenedBy: ev.Actor, Reason: ev.Reason}
}

// PeriodStatus is the read shape for one month.
type PeriodStatus struct {
	Period   Period          `json:"period"`
	IsOpen   bool            `json:"isOpen"`
	Closures []PeriodClosure `json:"closures"`
	Reopens  []PeriodReopen  `json:"reopens"`
}

// NewPeriodStatus folds the log of one period. The period is closed iff the latest event is a closure.
func NewPeriodStatus(p Period, events []PeriodEvent) PeriodStatus {
	st := PeriodStatus{Period: p, IsOpen: true, Closures: []PeriodClosure{}, Reopens: []PeriodReopen{}}
	for _, ev := range events {
		switch ev.Kind {
		case PeriodClosed:
			st.Closures = append(st.Closures, ev.Closure())
			st.IsOpen = false
		case PeriodReopened:
			st.Reopens = append(st.Reopens, ev.Reopen())
			st.IsOpen = true
		}
	}
	return st
}

// YearEndClosure marks a fiscal year closed. Once Permanent, nothing may be posted into the year.
type YearEndClosure struct {
	ClosureID      string          `json:"closureID"`
	TenantID       string          `json:"tenantID"`
	Year           int             `json:"year"`
	ClosureDate    time.Time       `json:"closureDate"`
	NetIncome      decimal.Decimal `json:"netIncome"`
	ClosingEntryID *string         `json:"closingEntryID,omitempty"`
	Permanent      bool            `json:"permanent"`
	ClosedAt       time.Time       `json:"closedAt"`
	ClosedBy       string          `json:"closedBy"`
}
