// Package aggregation turns a point-in-time account and transaction snapshot
// into dashboard figures, spending breakdowns, balance trends and
// recommendations. Every function is pure: callers pass the clock in.
package aggregation

import (
	"time"

	"github.com/boddenberg/finance-insights-bfa-go/internal/domain"
)

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// MonthWindow covers the calendar month of now, in now's location.
func MonthWindow(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// WeekWindow covers the last 7 calendar days, today included.
func WeekWindow(now time.Time) Window {
	today := StartOfDay(now)
	return Window{Start: today.AddDate(0, 0, -6), End: today.AddDate(0, 0, 1)}
}

// PeriodWindow resolves a breakdown period against now.
func PeriodWindow(period domain.Period, now time.Time) Window {
	if period == domain.PeriodWeek {
		return WeekWindow(now)
	}
	return MonthWindow(now)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
