package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_PerClient(t *testing.T) {
	l := newClientLimiter(0.001, 1)

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
	assert.Equal(t, 2, l.size())
}

func TestClientLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newClientLimiter(1, 1)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	for _, addr := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		l.allow(addr)
	}
	assert.Equal(t, 3, l.size())

	now = now.Add(l.idleTTL / 2)
	l.allow("10.0.0.3")
	assert.Equal(t, 3, l.size())

	now = now.Add(l.idleTTL/2 + time.Second)
	l.allow("10.0.0.4")
	assert.Equal(t, 2, l.size(), "only the recently seen and the new client remain")
}
