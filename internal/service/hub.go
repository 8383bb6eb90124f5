package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const subscriberBuffer = 16

type subscriber struct {
	ch chan CommentView
}

// Hub fans newly created comments out to the streams watching their post.
type Hub struct {
	subscribers map[string]map[*subscriber]struct{}
	active      prometheus.Gauge
	mu          sync.Mutex
}

// NewHub returns an empty hub. active may be nil.
func NewHub(active prometheus.Gauge) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		active:      active,
	}
}

// Subscribe registers a stream for postID. The returned cancel func is safe
// to call more than once; the channel is closed after it runs or after the
// hub drops a subscriber that fell behind.
func (h *Hub) Subscribe(postID string) (<-chan CommentView, func()) {
	sub := &subscriber{ch: make(chan CommentView, subscriberBuffer)}

	h.mu.Lock()
	if _, exists := h.subscribers[postID]; !exists {
		h.subscribers[postID] = make(map[*subscriber]struct{})
	}
	h.subscribers[postID][sub] = struct{}{}
	h.mu.Unlock()
	h.gaugeAdd(1)

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.remove(postID, sub)
	}
}

// Publish never blocks: a subscriber whose buffer is full is dropped.
func (h *Hub) Publish(postID string, comment CommentView) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers[postID] {
		select {
		case sub.ch <- comment:
		default:
			h.remove(postID, sub)
		}
	}
}

// Subscribers reports how many streams watch postID.
func (h *Hub) Subscribers(postID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[postID])
}

// remove must be called with h.mu held.
func (h *Hub) remove(postID string, sub *subscriber) {
	subs, exists := h.subscribers[postID]
	if !exists {
		return
	}
	if _, exists := subs[sub]; !exists {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, postID)
	}
	close(sub.ch)
	h.gaugeAdd(-1)
}

func (h *Hub) gaugeAdd(v float64) {
	if h.active != nil {
		h.active.Add(v)
	}
}
