package laborder

import "errors"

var (
	ErrOrderNotFound     = errors.New("lab order not found")
	ErrInvalidStatus     = errors.New("invalid lab order status")
	ErrInvalidTransition = errors.New("invalid lab order status transition")
	ErrCancelPaidOrder   = errors.New("cannot cancel a lab order with paid payment status")
	ErrNoOrdersCreated   = errors.New("no lab orders created: every selection was skipped")
)
