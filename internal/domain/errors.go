package domain

import "errors"

// Shared sentinels returned by repositories and module services. Defined here
// so repositories can report capacity and transition violations without
// importing the modules that map them to HTTP codes.
var (
	ErrNotFound          = errors.New("record not found")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrServiceMismatch   = errors.New("slot does not belong to service")
	ErrCapacityExceeded  = errors.New("slot capacity exceeded")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSlotInUse         = errors.New("slot has active appointments")
	ErrServiceInUse      = errors.New("service has active appointments")
)
