package sample

import "errors"

var (
	ErrCollectionNotFound = errors.New("sample collection not found")
	ErrCollectionExists   = errors.New("lab order already has a sample collection")
	ErrInvalidStatus      = errors.New("invalid sample collection status")
	ErrInvalidTransition  = errors.New("invalid sample collection status transition")
	ErrCollectorRequired  = errors.New("collector name and sample type are required to mark a sample collected")
	ErrOrderNotCompleted  = errors.New("sample collection cannot complete before its lab order")
)
