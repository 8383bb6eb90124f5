package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks a row that breaks the data model, such as a like
	// whose target author could not be resolved.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidConfiguration marks call parameters that are rejected before any
	// computation starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MalformedLikeError describes a like that could not be scored.
type MalformedLikeError struct {
	LikeID string
	Reason string
}

func (e *MalformedLikeError) Error() string {
	return fmt.Sprintf("like %s: %s", e.LikeID, e.Reason)
}

func (e *MalformedLikeError) Unwrap() error {
	return ErrMalformedInput
}
