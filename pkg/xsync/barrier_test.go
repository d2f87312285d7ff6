package xsync_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarrierLockStep(t *testing.T) {
	const parties = 8
	const rounds = 50
	ctx := context.Background()
	b := xsync.NewBarrier(parties)

	// progress[i] is the last round finished by party i
	var progress [parties]int64
	var violations int64
	var wg sync.WaitGroup
	for p := 0; p < parties; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for r := int64(1); r <= rounds; r++ {
				for q := 0; q < parties; q++ {
					if atomic.LoadInt64(&progress[q]) < r-1 {
						atomic.AddInt64(&violations, 1)
					}
				}
				atomic.StoreInt64(&progress[p], r)
				if err := b.Await(ctx); err != nil {
					t.Error(err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	assert.Zero(t, violations)
	assert.EqualValues(t, rounds, b.Round())
}

func TestBarrierSingleParty(t *testing.T) {
	b := xsync.NewBarrier(0)
	require.Equal(t, 1, b.Parties())
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Await(context.Background()))
	}
}

func TestBarrierBreak(t *testing.T) {
	b := xsync.NewBarrier(3)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- b.Await(context.Background()) }()
	}
	time.Sleep(20 * time.Millisecond)
	b.Break()
	for i := 0; i < 2; i++ {
		require.ErrorIs(t, <-errs, xsync.ErrBroken)
	}
	require.ErrorIs(t, b.Await(context.Background()), xsync.ErrBroken)
}

func TestBarrierCancelBreaksPeers(t *testing.T) {
	b := xsync.NewBarrier(3)
	peer := make(chan error, 1)
	go func() { peer <- b.Await(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	require.ErrorIs(t, b.Await(ctx), context.Canceled)
	require.ErrorIs(t, <-peer, xsync.ErrBroken)
}
