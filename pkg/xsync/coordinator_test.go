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

func TestCoordinatorAdmission(t *testing.T) {
	const parties = 16
	ctx := context.Background()
	c := xsync.NewCoordinator(parties)
	require.Equal(t, parties, c.Parties())

	var inside int32
	var overlap int32
	var wg sync.WaitGroup
	for p := 0; p < parties; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < 10; r++ {
				if !assert.NoError(t, c.Admit(ctx)) {
					return
				}
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.AddInt32(&overlap, 1)
				}
				time.Sleep(50 * time.Microsecond)
				atomic.AddInt32(&inside, -1)
				c.Done()
				if !assert.NoError(t, c.Rendezvous(ctx)) {
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, overlap)
	assert.Equal(t, 1, c.MaxInflight())
	assert.EqualValues(t, 10, c.Rounds())
}

func TestCoordinatorAdmitCancelled(t *testing.T) {
	c := xsync.NewCoordinator(2)
	require.NoError(t, c.Admit(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.Admit(ctx), context.DeadlineExceeded)
	c.Done()
}

func TestCoordinatorAbort(t *testing.T) {
	c := xsync.NewCoordinator(2)
	done := make(chan error, 1)
	go func() { done <- c.Rendezvous(context.Background()) }()
	time.Sleep(10 * time.Millisecond)
	c.Abort()
	require.ErrorIs(t, <-done, xsync.ErrBroken)
}
