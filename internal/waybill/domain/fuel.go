package waybill

import (
	"fmt"
	"math"
)

// Calculation functions are pure and never return errors: invalid input
// degrades to nil or zero, and callers with full request context decide
// whether that is a validation failure.

// DistanceKm returns the odometer delta, or nil when either reading is
// missing or the end reading is behind the start. Negative distance is
// rejected, not clamped.
func DistanceKm(start, end *float64) *float64 {
	if start == nil || end == nil {
		return nil
	}
	if *end < *start {
		return nil
	}
	d := *end - *start
	return &d
}

// NormConsumption computes consumption for a distance at a base rate under
// additive percentage increases. Returns 0 for non-positive distance or rate.
func NormConsumption(distanceKm, baseRate float64, increases ...float64) float64 {
	if distanceKm <= 0 || baseRate <= 0 {
		return 0
	}
	factor := 1.0
	for _, inc := range increases {
		factor += inc
	}
	return round2(distanceKm / 100 * baseRate * factor)
}

// SeasonRate picks the winter or summer rate from the profile, falling back
// to the other rate when the preferred one is absent. Returns 0 when the
// profile carries no usable rate.
func SeasonRate(profile *RateProfile, isWinter bool) float64 {
	if profile == nil {
		return 0
	}
	preferred, fallback := profile.SummerRate, profile.WinterRate
	if isWinter {
		preferred, fallback = profile.WinterRate, profile.SummerRate
	}
	if preferred != nil && *preferred > 0 {
		return *preferred
	}
	if fallback != nil && *fallback > 0 {
		return *fallback
	}
	return 0
}

// PlannedFuel computes the expected consumption for a plain odometer
// distance under the profile's rate and the trip condition flags.
func PlannedFuel(distanceKm *float64, profile *RateProfile, flags DriveFlags, isWinter bool) float64 {
	if distanceKm == nil || profile == nil {
		return 0
	}
	rate := SeasonRate(profile, isWinter)
	if rate <= 0 {
		return 0
	}
	return NormConsumption(*distanceKm, rate, flagIncreases(profile, flags)...)
}

// PlannedFuelInput carries everything the method dispatcher needs.
type PlannedFuelInput struct {
	Method             CalcMethod
	BaseRate           float64
	OdometerDistanceKm *float64
	Segments           []RouteSegment
	Profile            *RateProfile
}

// PlannedFuelByMethod dispatches the planned-fuel calculation over the
// configured strategy. Unknown methods and non-positive base rates yield 0.
func PlannedFuelByMethod(in PlannedFuelInput) float64 {
	if in.BaseRate <= 0 {
		return 0
	}
	calc, ok := methodCalcs[in.Method]
	if !ok {
		return 0
	}
	return calc(in)
}

// methodCalcs is the strategy table; adding a CalcMethod without an entry
// here makes the method compute nothing rather than something wrong.
var methodCalcs = map[CalcMethod]func(PlannedFuelInput) float64{
	MethodBoiler:   boilerFuel,
	MethodSegments: segmentsFuel,
	MethodMixed:    mixedFuel,
}

// boilerFuel trusts only the odometer: one calculation over the total
// distance, no per-segment increases.
func boilerFuel(in PlannedFuelInput) float64 {
	if in.OdometerDistanceKm == nil || *in.OdometerDistanceKm <= 0 {
		return 0
	}
	return NormConsumption(*in.OdometerDistanceKm, in.BaseRate)
}

// segmentsFuel trusts only the route breakdown: each segment is computed
// independently under its own flags and the rounded results are summed.
func segmentsFuel(in PlannedFuelInput) float64 {
	total := 0.0
	for _, seg := range in.Segments {
		if seg.DistanceKm <= 0 {
			continue
		}
		total += NormConsumption(seg.DistanceKm, in.BaseRate, segmentIncreases(in.Profile, seg)...)
	}
	return round2(total)
}

// mixedFuel reconciles both signals: an exact per-segment consumption sum
// over the exact segment distance yields a blended average rate, which is
// then applied to the odometer distance. Used when the recorded route does
// not cover the whole odometer delta.
func mixedFuel(in PlannedFuelInput) float64 {
	if in.OdometerDistanceKm == nil || *in.OdometerDistanceKm <= 0 {
		return 0
	}
	var exactConsumption, totalSegmentKm float64
	for _, seg := range in.Segments {
		if seg.DistanceKm <= 0 {
			continue
		}
		factor := 1.0
		for _, inc := range segmentIncreases(in.Profile, seg) {
			factor += inc
		}
		exactConsumption += seg.DistanceKm / 100 * in.BaseRate * factor
		totalSegmentKm += seg.DistanceKm
	}
	if totalSegmentKm <= 0 {
		return 0
	}
	averageRate := exactConsumption / (totalSegmentKm / 100)
	return round2(*in.OdometerDistanceKm / 100 * averageRate)
}

// FuelEnd derives the end-of-trip fuel level; nil inputs count as zero.
// The result is not clamped: overflow past tank capacity is a display
// concern for the caller.
func FuelEnd(start, received, consumed *float64) float64 {
	return round2(orZero(start) + orZero(received) - orZero(consumed))
}

// BalanceTolerance absorbs drift from upstream per-step rounding.
const BalanceTolerance = 0.05

// BalanceCheck is the outcome of a fuel balance validation.
type BalanceCheck struct {
	IsValid     bool
	ExpectedEnd float64
	ActualEnd   float64
	Difference  float64
	Error       string
}

// ValidateFuelBalance checks start + received - consumed against the
// recorded end level within tolerance. All-nil input is trivially valid.
func ValidateFuelBalance(start, received, consumed, end *float64, tolerance float64) BalanceCheck {
	if start == nil && received == nil && consumed == nil && end == nil {
		return BalanceCheck{IsValid: true}
	}
	if tolerance <= 0 {
		tolerance = BalanceTolerance
	}
	expected := FuelEnd(start, received, consumed)
	actual := round2(orZero(end))
	diff := round2(math.Abs(expected - actual))
	check := BalanceCheck{ExpectedEnd: expected, ActualEnd: actual, Difference: diff}
	if diff > tolerance {
		check.Error = fmt.Sprintf("fuel balance mismatch: expected end %.2f, recorded %.2f (difference %.2f)", expected, actual, diff)
		return check
	}
	check.IsValid = true
	return check
}

// OdometerCheck is the outcome of an odometer ordering validation.
type OdometerCheck struct {
	IsValid bool
	Error   string
}

// ValidateOdometer requires end >= start when both readings are present.
func ValidateOdometer(start, end *float64) OdometerCheck {
	if start == nil || end == nil {
		return OdometerCheck{IsValid: true}
	}
	if *end < *start {
		return OdometerCheck{Error: fmt.Sprintf("odometer end %.1f is behind start %.1f", *end, *start)}
	}
	return OdometerCheck{IsValid: true}
}

func flagIncreases(profile *RateProfile, flags DriveFlags) []float64 {
	if profile == nil {
		return nil
	}
	var increases []float64
	if flags.CityDriving && profile.CityIncrease > 0 {
		increases = append(increases, profile.CityIncrease)
	}
	if flags.Warming && profile.WarmingIncrease > 0 {
		increases = append(increases, profile.WarmingIncrease)
	}
	if flags.MountainDriving && profile.MountainIncrease > 0 {
		increases = append(increases, profile.MountainIncrease)
	}
	return increases
}

func segmentIncreases(profile *RateProfile, seg RouteSegment) []float64 {
	return flagIncreases(profile, DriveFlags{
		CityDriving:     seg.CityDriving,
		Warming:         seg.Warming,
		MountainDriving: seg.MountainDriving,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
