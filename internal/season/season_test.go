package season

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 30, 0, 0, time.UTC)
}

// The default recurring policy: winter from November 1st until April 1st.
func recurringPolicy() *Policy {
	return &Policy{
		Kind:        PolicyRecurring,
		SummerMonth: time.April,
		SummerDay:   1,
		WinterMonth: time.November,
		WinterDay:   1,
	}
}

func TestRecurringWinterBoundaries(t *testing.T) {
	policy := recurringPolicy()
	cases := []struct {
		date   time.Time
		winter bool
	}{
		{date(2024, time.March, 31), true},
		{date(2024, time.April, 1), false},
		{date(2024, time.July, 15), false},
		{date(2024, time.October, 31), false},
		{date(2024, time.November, 1), true},
		{date(2024, time.December, 31), true},
		{date(2025, time.January, 15), true},
	}
	for _, tc := range cases {
		if got := IsWinter(tc.date, policy); got != tc.winter {
			t.Errorf("%s: got %v, want %v", tc.date.Format("2006-01-02"), got, tc.winter)
		}
	}
}

func TestRecurringWinterSouthernOrder(t *testing.T) {
	// Winter boundary before the summer boundary within the year: winter is
	// the contiguous interval [winterStart, summerStart).
	policy := &Policy{
		Kind:        PolicyRecurring,
		SummerMonth: time.September,
		SummerDay:   1,
		WinterMonth: time.June,
		WinterDay:   1,
	}
	if !IsWinter(date(2024, time.July, 10), policy) {
		t.Error("july not winter")
	}
	if IsWinter(date(2024, time.September, 1), policy) {
		t.Error("summer start counted as winter")
	}
	if IsWinter(date(2024, time.February, 10), policy) {
		t.Error("february counted as winter")
	}
}

func TestRecurringMalformedBoundary(t *testing.T) {
	policy := recurringPolicy()
	policy.WinterDay = 31 // November has 30 days
	if IsWinter(date(2024, time.December, 15), policy) {
		t.Error("malformed boundary classified winter")
	}

	policy = recurringPolicy()
	policy.SummerMonth = 0
	if IsWinter(date(2024, time.January, 15), policy) {
		t.Error("missing summer month classified winter")
	}
}

func TestManualWinterRange(t *testing.T) {
	policy := &Policy{
		Kind:        PolicyManual,
		WinterStart: date(2024, time.November, 15),
		WinterEnd:   date(2025, time.March, 20),
	}
	if !IsWinter(date(2024, time.November, 15), policy) {
		t.Error("range start excluded")
	}
	if !IsWinter(date(2025, time.March, 20), policy) {
		t.Error("range end excluded")
	}
	if IsWinter(date(2024, time.November, 14), policy) {
		t.Error("day before range included")
	}
	if IsWinter(date(2025, time.March, 21), policy) {
		t.Error("day after range included")
	}

	// Time of day on the boundary must not matter.
	lateStart := time.Date(2024, time.November, 15, 23, 59, 0, 0, time.UTC)
	if !IsWinter(lateStart, policy) {
		t.Error("late evening on range start excluded")
	}
}

func TestManualWinterWrappedRange(t *testing.T) {
	// Start after end is read as a wrap across the year boundary.
	policy := &Policy{
		Kind:        PolicyManual,
		WinterStart: date(2024, time.November, 1),
		WinterEnd:   date(2024, time.March, 31),
	}
	if !IsWinter(date(2024, time.December, 10), policy) {
		t.Error("december excluded from wrapped range")
	}
	if !IsWinter(date(2024, time.February, 10), policy) {
		t.Error("february excluded from wrapped range")
	}
	if IsWinter(date(2024, time.July, 10), policy) {
		t.Error("july included in wrapped range")
	}
}

func TestManualWinterMissingBounds(t *testing.T) {
	policy := &Policy{Kind: PolicyManual, WinterStart: date(2024, time.November, 1)}
	if IsWinter(date(2024, time.December, 10), policy) {
		t.Error("missing end classified winter")
	}
}

func TestIsWinterDegradesToFalse(t *testing.T) {
	if IsWinter(time.Time{}, recurringPolicy()) {
		t.Error("zero date classified winter")
	}
	if IsWinter(date(2024, time.January, 10), nil) {
		t.Error("nil policy classified winter")
	}
	if IsWinter(date(2024, time.January, 10), &Policy{Kind: PolicyKind("astral")}) {
		t.Error("unknown policy kind classified winter")
	}
}
