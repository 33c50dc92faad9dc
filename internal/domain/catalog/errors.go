package catalog

import "errors"

var (
	ErrLabTestNotFound      = errors.New("lab test not found")
	ErrPharmacyItemNotFound = errors.New("pharmacy item not found")
)
