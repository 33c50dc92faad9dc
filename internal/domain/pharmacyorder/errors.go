package pharmacyorder

import "errors"

var (
	ErrOrderNotFound     = errors.New("pharmacy order not found")
	ErrOrderExists       = errors.New("prescription already has a pharmacy order")
	ErrInvalidStatus     = errors.New("invalid pharmacy order status")
	ErrInvalidTransition = errors.New("invalid pharmacy order status transition")
	ErrCancelPaidOrder   = errors.New("cannot cancel a pharmacy order with paid payment status")
	ErrNoItems           = errors.New("pharmacy order requires at least one item")
	ErrInvalidQuantity   = errors.New("item quantity must be positive")
)
