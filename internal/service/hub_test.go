package service

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishToPostSubscribers(t *testing.T) {
	hub := NewHub(nil)
	ch, cancel := hub.Subscribe("p1")
	defer cancel()
	other, cancelOther := hub.Subscribe("p2")
	defer cancelOther()

	hub.Publish("p1", CommentView{ID: "c1", PostID: "p1"})

	got := <-ch
	assert.Equal(t, "c1", got.ID)
	select {
	case c := <-other:
		t.Fatalf("unexpected comment %s on other post", c.ID)
	default:
	}
}

func TestHub_CancelClosesOnce(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "subs"})
	hub := NewHub(gauge)
	ch, cancel := hub.Subscribe("p1")
	assert.Equal(t, 1, hub.Subscribers("p1"))
	assert.Equal(t, float64(1), testutil.ToFloat64(gauge))

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("p1"))
	assert.Equal(t, float64(0), testutil.ToFloat64(gauge))
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(nil)
	slow, cancelSlow := hub.Subscribe("p1")
	defer cancelSlow()

	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish("p1", CommentView{ID: "c"})
	}
	assert.Equal(t, 0, hub.Subscribers("p1"))

	received := 0
	for range slow {
		received++
	}
	require.Equal(t, subscriberBuffer, received)
}
