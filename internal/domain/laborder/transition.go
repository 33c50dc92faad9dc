package laborder

import "github.com/opdemr/orderflow/internal/domain"

// SideEffect describes follow-on work a transition demands. The state
// machine itself never touches storage; callers apply the effects inside
// the same transaction as the status write.
type SideEffect string

const (
	// EffectCompleteCollection advances the order's sample collection to
	// completed, if it is not there already.
	EffectCompleteCollection SideEffect = "complete_sample_collection"
)

type TransitionResult struct {
	Next    Status
	Effects []SideEffect
}

// Completion is reachable from every non-terminal state: the lab may
// report results straight off a walk-in draw without the intermediate
// sample statuses ever being recorded.
var transitions = map[Status][]Status{
	StatusOrdered:         {StatusSamplePending, StatusCompleted, StatusCancelled},
	StatusSamplePending:   {StatusSampleCollected, StatusCompleted, StatusCancelled},
	StatusSampleCollected: {StatusCompleted, StatusCancelled},
	StatusCompleted:       {},
	StatusCancelled:       {},
}

// Transition validates a lab order status change as a pure function of
// (current, target, payment status). On success it returns the new state
// plus the side effects the caller must apply atomically with it.
func Transition(current, target Status, payment domain.PaymentStatus) (TransitionResult, error) {
	if !target.IsValid() {
		return TransitionResult{}, ErrInvalidStatus
	}

	allowed := false
	for _, s := range transitions[current] {
		if s == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return TransitionResult{}, ErrInvalidTransition
	}

	// Paid orders are settled money; they leave through billing
	// adjustments, not through a cancel.
	if target == StatusCancelled && payment == domain.PaymentPaid {
		return TransitionResult{}, ErrCancelPaidOrder
	}

	res := TransitionResult{Next: target}
	if target == StatusCompleted {
		res.Effects = append(res.Effects, EffectCompleteCollection)
	}
	return res, nil
}
