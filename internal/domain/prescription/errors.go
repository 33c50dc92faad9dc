package prescription

import "errors"

var (
	ErrPrescriptionNotFound  = errors.New("prescription not found")
	ErrPrescriptionNotActive = errors.New("prescription is not active")
	ErrHasPaidBill           = errors.New("prescription has a paid bill and cannot be cancelled")
)
