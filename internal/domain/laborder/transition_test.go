package laborder

import (
	"errors"
	"testing"

	"github.com/opdemr/orderflow/internal/domain"
)

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		from, to Status
	}{
		{StatusOrdered, StatusSamplePending},
		{StatusSamplePending, StatusSampleCollected},
		{StatusSampleCollected, StatusCompleted},
	}
	for _, step := range steps {
		res, err := Transition(step.from, step.to, domain.PaymentPending)
		if err != nil {
			t.Fatalf("Transition(%s -> %s): %v", step.from, step.to, err)
		}
		if res.Next != step.to {
			t.Fatalf("Transition(%s -> %s): next = %s", step.from, step.to, res.Next)
		}
	}
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	illegal := []struct {
		from, to Status
	}{
		{StatusOrdered, StatusSampleCollected},
		{StatusSamplePending, StatusOrdered},
		{StatusSampleCollected, StatusOrdered},
		{StatusSampleCollected, StatusSamplePending},
		{StatusCompleted, StatusOrdered},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusOrdered},
		{StatusCancelled, StatusCompleted},
	}
	for _, step := range illegal {
		if _, err := Transition(step.from, step.to, domain.PaymentPending); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Transition(%s -> %s): err = %v, want ErrInvalidTransition", step.from, step.to, err)
		}
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	if _, err := Transition(StatusOrdered, Status("shipped"), domain.PaymentPending); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestCancelAllowedFromNonTerminalStates(t *testing.T) {
	for _, from := range []Status{StatusOrdered, StatusSamplePending, StatusSampleCollected} {
		res, err := Transition(from, StatusCancelled, domain.PaymentPending)
		if err != nil {
			t.Fatalf("Transition(%s -> cancelled): %v", from, err)
		}
		if len(res.Effects) != 0 {
			t.Fatalf("cancel from %s produced effects %v", from, res.Effects)
		}
	}
}

func TestCancelBlockedWhenPaid(t *testing.T) {
	for _, from := range []Status{StatusOrdered, StatusSamplePending, StatusSampleCollected} {
		if _, err := Transition(from, StatusCancelled, domain.PaymentPaid); !errors.Is(err, ErrCancelPaidOrder) {
			t.Errorf("Transition(%s -> cancelled, paid): err = %v, want ErrCancelPaidOrder", from, err)
		}
	}

	// Partial payment does not block a cancel.
	if _, err := Transition(StatusOrdered, StatusCancelled, domain.PaymentPartial); err != nil {
		t.Fatalf("cancel with partial payment: %v", err)
	}
}

func TestCompletionEmitsCollectionCascade(t *testing.T) {
	// The lab can report results from any non-terminal state, and every
	// route into completed drags the sample collection along.
	for _, from := range []Status{StatusOrdered, StatusSamplePending, StatusSampleCollected} {
		res, err := Transition(from, StatusCompleted, domain.PaymentPaid)
		if err != nil {
			t.Fatalf("Transition(%s -> completed): %v", from, err)
		}
		if len(res.Effects) != 1 || res.Effects[0] != EffectCompleteCollection {
			t.Fatalf("Transition(%s -> completed): effects = %v, want [%s]", from, res.Effects, EffectCompleteCollection)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false", s)
		}
	}
	for _, s := range []Status{StatusOrdered, StatusSamplePending, StatusSampleCollected} {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true", s)
		}
	}
}
