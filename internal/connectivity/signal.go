// Package connectivity provides the reachability signal the sync engine
// subscribes to. The Prober derives the signal from periodic probes of
// the remote service; the Manual signal exists for tests and for hosts
// that already know their connectivity state.
package connectivity

import "sync"

// Signal is an observable reachability flag. Subscribers receive the
// new value on every transition; they do not receive the current value
// on subscription and should call Online for that.
type Signal interface {
	// Online reports the current reachability state.
	Online() bool

	// Subscribe registers a new listener and returns its channel.
	// The channel is buffered; a subscriber that falls behind misses
	// intermediate transitions but always observes the latest one.
	Subscribe() <-chan bool

	// Unsubscribe removes a listener previously returned by Subscribe.
	Unsubscribe(ch <-chan bool)
}

// broadcaster implements the subscriber bookkeeping shared by the
// concrete signals.
type broadcaster struct {
	mu     sync.RWMutex
	online bool
	subs   []chan bool
}

func (b *broadcaster) Online() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.online
}

func (b *broadcaster) Subscribe() <-chan bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan bool, 1)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *broadcaster) Unsubscribe(ch <-chan bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// set records a new state and notifies subscribers if it changed.
// Returns true when a transition occurred.
func (b *broadcaster) set(online bool) bool {
	b.mu.Lock()
	if b.online == online {
		b.mu.Unlock()
		return false
	}
	b.online = online
	subs := make([]chan bool, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		// Replace a stale undelivered value rather than blocking.
		select {
		case sub <- online:
		default:
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- online:
			default:
			}
		}
	}
	return true
}
