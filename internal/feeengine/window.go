package feeengine

import (
	"fmt"
	"time"
)

// YearMonth identifies a calendar month without a day component.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf truncates a timestamp to its calendar month.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Before reports whether ym orders strictly before other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// After reports whether ym orders strictly after other.
func (ym YearMonth) After(other YearMonth) bool {
	return other.Before(ym)
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Label renders the short display form, e.g. "Mar 2024".
func (ym YearMonth) Label() string {
	return fmt.Sprintf("%s %d", ym.Month.String()[:3], ym.Year)
}

// Window is the inclusive [Start, End] reconciliation range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Empty reports whether the window is inverted and yields no periods.
func (w Window) Empty() bool {
	return w.Start.After(w.End)
}

// Months lists every calendar month touched by the window in order.
func (w Window) Months() []YearMonth {
	if w.Empty() {
		return nil
	}
	var months []YearMonth
	last := MonthOf(w.End)
	for ym := MonthOf(w.Start); !ym.After(last); ym = ym.Next() {
		months = append(months, ym)
	}
	return months
}

// ContainsMonth reports whether the calendar month overlaps the window.
func (w Window) ContainsMonth(ym YearMonth) bool {
	if w.Empty() {
		return false
	}
	return !ym.Before(MonthOf(w.Start)) && !ym.After(MonthOf(w.End))
}

// ContainsDate reports whether the calendar date of t falls inside the
// window. Comparison is at day granularity so an end date of 2024-06-30
// admits transactions stamped any time that day.
func (w Window) ContainsDate(t time.Time) bool {
	if w.Empty() {
		return false
	}
	day := dateOnly(t)
	return !day.Before(dateOnly(w.Start)) && !day.After(dateOnly(w.End))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
