package waybill

// Status is the lifecycle state of a waybill.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusPosted    Status = "POSTED"
	StatusCancelled Status = "CANCELLED"
)

// CalcMethod selects the planned-fuel calculation strategy.
type CalcMethod string

const (
	// MethodBoiler computes over the total odometer distance only.
	MethodBoiler CalcMethod = "BOILER"
	// MethodSegments computes per route segment and sums.
	MethodSegments CalcMethod = "SEGMENTS"
	// MethodMixed blends the segment rates and applies them to the
	// odometer distance.
	MethodMixed CalcMethod = "MIXED"
)

// NormalizeStatus validates a status string.
func NormalizeStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusDraft, StatusSubmitted, StatusPosted, StatusCancelled:
		return Status(value), true
	default:
		return "", false
	}
}

// NormalizeCalcMethod validates a calculation method string.
func NormalizeCalcMethod(value string) (CalcMethod, bool) {
	switch CalcMethod(value) {
	case MethodBoiler, MethodSegments, MethodMixed:
		return CalcMethod(value), true
	default:
		return "", false
	}
}

// allowedTransitions is the full lifecycle graph. Transition legality is
// checked here and nowhere else, so a future status cannot slip past the
// check through an ad hoc conditional.
var allowedTransitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted, StatusCancelled},
	StatusSubmitted: {StatusPosted, StatusCancelled},
	StatusPosted:    {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a StateTransitionError for an illegal change.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &StateTransitionError{From: from, To: to}
	}
	return nil
}

// Terminal reports whether no further transitions leave the status.
func Terminal(status Status) bool {
	return len(allowedTransitions[status]) == 0
}
