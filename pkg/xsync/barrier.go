// Package xsync holds the rendezvous primitives that pace fan-out runs.
package xsync

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrBroken = errors.New("barrier broken")

// Barrier is a reusable rendezvous for a fixed number of parties.
// A broken barrier releases every current and future waiter with ErrBroken.
type Barrier struct {
	parties int

	mu      sync.Mutex
	waiting int
	round   uint64
	release chan struct{}
	broken  chan struct{}
	once    sync.Once
}

func NewBarrier(parties int) *Barrier {
	if parties < 1 {
		parties = 1
	}
	return &Barrier{
		parties: parties,
		release: make(chan struct{}),
		broken:  make(chan struct{}),
	}
}

func (b *Barrier) Parties() int {
	return b.parties
}

// Round counts completed rendezvous.
func (b *Barrier) Round() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.round
}

// Await blocks until all parties arrived, ctx is done or the barrier breaks.
func (b *Barrier) Await(ctx context.Context) error {
	b.mu.Lock()
	select {
	case <-b.broken:
		b.mu.Unlock()
		return ErrBroken
	default:
	}
	b.waiting++
	if b.waiting == b.parties {
		close(b.release)
		b.release = make(chan struct{})
		b.waiting = 0
		b.round++
		b.mu.Unlock()
		return nil
	}
	release := b.release
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-b.broken:
		return ErrBroken
	case <-ctx.Done():
		b.Break()
		return ctx.Err()
	}
}

// Break abandons the barrier, a departed party can never be replaced.
func (b *Barrier) Break() {
	b.once.Do(func() {
		close(b.broken)
	})
}
