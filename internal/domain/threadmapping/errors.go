package threadmapping

import "errors"

var (
	// ErrMappingNotFound is returned when no mapping exists for a thread or ticket
	ErrMappingNotFound = errors.New("thread mapping not found")
	// ErrInvalidThreadKey is returned when a thread key is missing a component
	ErrInvalidThreadKey = errors.New("invalid thread key")
	// ErrInvalidTicketID is returned for a zero or negative ticket id
	ErrInvalidTicketID = errors.New("invalid ticket id")
)
