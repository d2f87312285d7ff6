package xcommon

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/BlackCloud37/latency-test/pkg/xlog"
)

// WaitGroup logs a panicking goroutine's stack before re-panicking.
// Use as `defer wg.Done(ctx)` directly, recover does not work through another func.
type WaitGroup struct {
	sync.WaitGroup
}

func (wg *WaitGroup) Add(n int) {
	wg.WaitGroup.Add(n)
}

func (wg *WaitGroup) Done(ctx context.Context) {
	if r := recover(); r != nil {
		xlog.Get(ctx).Sugar().Errorf("Goroutine panic %v stack %v", r, string(debug.Stack()))
		panic(r)
	}
	wg.WaitGroup.Done()
}

func (wg *WaitGroup) Wait() {
	wg.WaitGroup.Wait()
}

// Go runs fn in a goroutine tracked by wg.
func (wg *WaitGroup) Go(ctx context.Context, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done(ctx)
		fn()
	}()
}

// Recover must be deferred directly, see WaitGroup.
func Recover(ctx context.Context) {
	if r := recover(); r != nil {
		xlog.Get(ctx).Sugar().Errorf("Goroutine panic %v stack %v", r, string(debug.Stack()))
		panic(r)
	}
}
