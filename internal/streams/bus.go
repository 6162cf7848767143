// Package streams fans the engine's append-only TriggerEvent and TrustEvent
// output out to subscribers: in-process channels, a websocket hub and an
// optional redis mirror.
package streams

import (
	"sync"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// Bus is the in-process fan-out. Subscribers get buffered channels; a full
// buffer drops the event for that subscriber instead of blocking the
// publisher.
type Bus struct {
	mu       sync.RWMutex
	buffer   int
	triggers []chan models.TriggerEvent
	trust    []chan models.TrustEvent
	closed   bool
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{buffer: buffer}
}

func (b *Bus) SubscribeTriggers() <-chan models.TriggerEvent {
	ch := make(chan models.TriggerEvent, b.buffer)
	b.mu.Lock()
	b.triggers = append(b.triggers, ch)
	b.mu.Unlock()
	return ch
}

func (b *Bus) SubscribeTrust() <-chan models.TrustEvent {
	ch := make(chan models.TrustEvent, b.buffer)
	b.mu.Lock()
	b.trust = append(b.trust, ch)
	b.mu.Unlock()
	return ch
}

func (b *Bus) PublishTrigger(event models.TriggerEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.triggers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *Bus) PublishTrust(event models.TrustEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.trust {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.triggers {
		close(ch)
	}
	for _, ch := range b.trust {
		close(ch)
	}
	b.triggers = nil
	b.trust = nil
}
