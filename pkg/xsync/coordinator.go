package xsync

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Coordinator paces drivers of one fan-out run: a round barrier plus a
// single permit admission semaphore around the send/receive section.
type Coordinator struct {
	barrier   *Barrier
	admission *semaphore.Weighted

	inflight    int32
	maxInflight int32
}

func NewCoordinator(parties int) *Coordinator {
	return &Coordinator{
		barrier:   NewBarrier(parties),
		admission: semaphore.NewWeighted(1),
	}
}

func (c *Coordinator) Parties() int {
	return c.barrier.Parties()
}

// Admit blocks until the caller is the only driver in flight.
func (c *Coordinator) Admit(ctx context.Context) error {
	if err := c.admission.Acquire(ctx, 1); err != nil {
		return err
	}
	n := atomic.AddInt32(&c.inflight, 1)
	for {
		m := atomic.LoadInt32(&c.maxInflight)
		if n <= m || atomic.CompareAndSwapInt32(&c.maxInflight, m, n) {
			break
		}
	}
	return nil
}

// Done releases the permit taken by Admit.
func (c *Coordinator) Done() {
	atomic.AddInt32(&c.inflight, -1)
	c.admission.Release(1)
}

// Rendezvous waits for every driver to finish the current round.
func (c *Coordinator) Rendezvous(ctx context.Context) error {
	return c.barrier.Await(ctx)
}

// Abort releases all drivers blocked in Rendezvous.
func (c *Coordinator) Abort() {
	c.barrier.Break()
}

func (c *Coordinator) Rounds() uint64 {
	return c.barrier.Round()
}

// MaxInflight is the highest number of admitted drivers ever observed.
func (c *Coordinator) MaxInflight() int {
	return int(atomic.LoadInt32(&c.maxInflight))
}
