package storage

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCursor_RoundTrip(t *testing.T) {
	c := PostCursor{CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC), ID: "b"}

	decoded, err := DecodePostCursor(c.Encode())
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, "b", decoded.ID)
}

func TestPostCursor_After(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := PostCursor{CreatedAt: at, ID: "b"}

	assert.True(t, c.After(at.Add(-time.Second), "a"))
	assert.True(t, c.After(at, "c"))
	assert.False(t, c.After(at, "b"))
	assert.False(t, c.After(at, "a"))
	assert.False(t, c.After(at.Add(time.Second), "z"))
}

func TestDecodePostCursor_Invalid(t *testing.T) {
	for _, s := range []string{
		"yesterday!",
		base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
		base64.RawURLEncoding.EncodeToString([]byte("2024-03-01T12:00:00Z|")),
		base64.RawURLEncoding.EncodeToString([]byte("tomorrow|id")),
	} {
		_, err := DecodePostCursor(s)
		assert.ErrorIs(t, err, ErrInvalidCursor, s)
	}
}
