package xcommon_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/stretchr/testify/require"
)

func TestWaitGroup(t *testing.T) {
	ctx := context.Background()
	var wg xcommon.WaitGroup
	var n int32

	for i := 0; i < 8; i++ {
		wg.Go(ctx, func() { atomic.AddInt32(&n, 1) })
	}
	wg.Wait()
	require.EqualValues(t, 8, n)
}

func TestRecoverRepanics(t *testing.T) {
	ctx := context.Background()
	require.PanicsWithValue(t, "boom", func() {
		defer xcommon.Recover(ctx)
		panic("boom")
	})
}

func TestRecoverNoPanic(t *testing.T) {
	ctx := context.Background()
	require.NotPanics(t, func() {
		defer xcommon.Recover(ctx)
	})
}
