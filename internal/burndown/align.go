package burndown

import (
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
)

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Align shifts every date by the same whole-day offset so the earliest one
// falls on anchor.
func Align(dates []time.Time, anchor time.Time) []time.Time {
	if len(dates) == 0 {
		return []time.Time{}
	}
	earliest := dates[0]
	for _, d := range dates[1:] {
		if d.Before(earliest) {
			earliest = d
		}
	}
	return shift(dates, daysBetween(earliest, anchor))
}

// AlignEnd shifts every date by the same whole-day offset so the latest one
// falls on anchor.
func AlignEnd(dates []time.Time, anchor time.Time) []time.Time {
	if len(dates) == 0 {
		return []time.Time{}
	}
	latest := dates[0]
	for _, d := range dates[1:] {
		if d.After(latest) {
			latest = d
		}
	}
	return shift(dates, daysBetween(latest, anchor))
}

func shift(dates []time.Time, offset int) []time.Time {
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = d.AddDate(0, 0, offset)
	}
	return out
}

// AlignHistory relabels sales history so its last day is anchor. Quantities
// are untouched.
func AlignHistory(history []domain.HistoryPoint, anchor time.Time) []domain.HistoryPoint {
	dates := make([]time.Time, len(history))
	for i, h := range history {
		dates[i] = h.Date
	}
	aligned := AlignEnd(dates, anchor)

	out := make([]domain.HistoryPoint, len(history))
	for i, h := range history {
		out[i] = domain.HistoryPoint{Date: aligned[i], Quantity: h.Quantity}
	}
	return out
}
