package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// PostCursor is the keyset position of the last post on a page. Posts are
// ordered by created_at descending, then id ascending, so the next page starts
// strictly after (CreatedAt, ID) in that order.
type PostCursor struct {
	CreatedAt time.Time
	ID        string
}

func (c PostCursor) Encode() string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// After reports whether a post at (createdAt, id) belongs after the cursor.
func (c PostCursor) After(createdAt time.Time, id string) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id > c.ID
	}
	return createdAt.Before(c.CreatedAt)
}

func DecodePostCursor(s string) (PostCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return PostCursor{}, fmt.Errorf("%w %q", ErrInvalidCursor, s)
	}
	ts, id, found := strings.Cut(string(raw), "|")
	if !found || id == "" {
		return PostCursor{}, fmt.Errorf("%w %q", ErrInvalidCursor, s)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return PostCursor{}, fmt.Errorf("%w %q: %v", ErrInvalidCursor, s, err)
	}
	return PostCursor{CreatedAt: createdAt, ID: id}, nil
}
