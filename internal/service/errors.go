package service

import "errors"

var (
	// ErrInvalidInput marks a request the caller must fix: empty or oversized
	// content, a bad cursor, a parent comment from another post.
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCommentsDisabled rejects a comment on a post created with comments off.
	ErrCommentsDisabled = errors.New("comments are disabled for this post")
)
