// Package season decides whether a date falls into the winter fuel-rate
// period for an organization.
package season

import "time"

// PolicyKind selects how winter boundaries are expressed.
type PolicyKind string

const (
	// PolicyRecurring repeats the same month/day boundaries every year.
	PolicyRecurring PolicyKind = "recurring"
	// PolicyManual uses an absolute calendar range.
	PolicyManual PolicyKind = "manual"
)

// Policy describes the winter period. Recurring policies use the month/day
// fields, manual policies use the absolute range. A malformed policy never
// classifies anything as winter.
type Policy struct {
	Kind PolicyKind

	SummerMonth time.Month
	SummerDay   int
	WinterMonth time.Month
	WinterDay   int

	WinterStart time.Time
	WinterEnd   time.Time
}

// IsWinter reports whether date falls into the policy's winter period.
// A zero date or nil policy is never winter; callers treat "not provably
// winter" as the safe default.
func IsWinter(date time.Time, policy *Policy) bool {
	if date.IsZero() || policy == nil {
		return false
	}
	switch policy.Kind {
	case PolicyManual:
		return manualWinter(date, policy)
	case PolicyRecurring:
		return recurringWinter(date, policy)
	default:
		return false
	}
}

func manualWinter(date time.Time, policy *Policy) bool {
	start := dayOf(policy.WinterStart)
	end := dayOf(policy.WinterEnd)
	if start.IsZero() || end.IsZero() {
		return false
	}
	d := dayOf(date)
	if start.After(end) {
		// Range wraps across the year boundary.
		return !d.Before(start) || !d.After(end)
	}
	return !d.Before(start) && !d.After(end)
}

func recurringWinter(date time.Time, policy *Policy) bool {
	summerStart, ok := monthDayIn(date.Year(), policy.SummerMonth, policy.SummerDay, date.Location())
	if !ok {
		return false
	}
	winterStart, ok := monthDayIn(date.Year(), policy.WinterMonth, policy.WinterDay, date.Location())
	if !ok {
		return false
	}
	d := dayOf(date)
	if summerStart.Before(winterStart) {
		// Summer boundary comes first in the calendar year (the usual case,
		// e.g. April vs. November): winter wraps around the year end.
		return d.Before(summerStart) || !d.Before(winterStart)
	}
	// Winter is the contiguous interval [winterStart, summerStart).
	return !d.Before(winterStart) && d.Before(summerStart)
}

// monthDayIn builds the month/day boundary within the given year, rejecting
// values that do not form a real calendar date.
func monthDayIn(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func dayOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
