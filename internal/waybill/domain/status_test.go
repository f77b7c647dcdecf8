package waybill

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusPosted, false},
		{StatusSubmitted, StatusPosted, true},
		{StatusSubmitted, StatusCancelled, true},
		{StatusSubmitted, StatusDraft, false},
		{StatusPosted, StatusDraft, false},
		{StatusPosted, StatusCancelled, false},
		{StatusCancelled, StatusDraft, false},
		{StatusCancelled, StatusSubmitted, false},
		{StatusDraft, StatusDraft, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	if err := CheckTransition(StatusDraft, StatusSubmitted); err != nil {
		t.Fatalf("legal transition rejected: %v", err)
	}

	err := CheckTransition(StatusDraft, StatusPosted)
	if err == nil {
		t.Fatal("draft -> posted accepted")
	}
	var transition *StateTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("got %T, want *StateTransitionError", err)
	}
	if transition.From != StatusDraft || transition.To != StatusPosted {
		t.Fatalf("error carries %s -> %s", transition.From, transition.To)
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(StatusPosted) {
		t.Error("posted is not terminal")
	}
	if !Terminal(StatusCancelled) {
		t.Error("cancelled is not terminal")
	}
	if Terminal(StatusDraft) || Terminal(StatusSubmitted) {
		t.Error("draft or submitted reported terminal")
	}
}

func TestNormalizeStatus(t *testing.T) {
	if status, ok := NormalizeStatus("POSTED"); !ok || status != StatusPosted {
		t.Fatalf("POSTED: got %q, %v", status, ok)
	}
	if _, ok := NormalizeStatus("posted"); ok {
		t.Fatal("lowercase status accepted")
	}
	if _, ok := NormalizeStatus(""); ok {
		t.Fatal("empty status accepted")
	}
}

func TestNormalizeCalcMethod(t *testing.T) {
	for _, valid := range []string{"BOILER", "SEGMENTS", "MIXED"} {
		if _, ok := NormalizeCalcMethod(valid); !ok {
			t.Errorf("%s rejected", valid)
		}
	}
	if _, ok := NormalizeCalcMethod("AVERAGE"); ok {
		t.Fatal("unknown method accepted")
	}
}
