package billing

import "errors"

var (
	ErrBillNotFound         = errors.New("bill not found")
	ErrBillAlreadyFinalized = errors.New("bill is paid and can no longer be modified")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrTotalMismatch        = errors.New("bill total does not match subtotal - discount + tax")
	ErrNoItems              = errors.New("bill requires at least one item")
)
