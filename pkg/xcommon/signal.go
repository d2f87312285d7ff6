package xcommon

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/BlackCloud37/latency-test/pkg/xlog"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// UntilSignal blocks until the process is asked to stop or ctx is done.
func UntilSignal(ctx context.Context) {
	ctx, stop := SignalContext(ctx)
	defer stop()

	<-ctx.Done()
	xlog.Get(ctx).Info("Recv exit signal.")
}
