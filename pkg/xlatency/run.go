package xlatency

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"sync"

	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/BlackCloud37/latency-test/pkg/xmsg"
	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/BlackCloud37/latency-test/pkg/xsync"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNoConnection = errors.New("no connection to test")

// ConnError is the failure of one connection.
type ConnError struct {
	Proto xnet.Protocol
	Desc  Descriptor
	Err   error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Desc.conn(e.Proto), e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

func (e *ConnError) Cause() error { return e.Err }

// RunError lists the connections that failed on their own. Aborted counts
// the ones torn down because of those failures.
type RunError struct {
	Failed  []*ConnError
	Aborted int
}

func (e *RunError) Error() string {
	msgs := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d connection(s) failed, %d aborted: %s", len(e.Failed), e.Aborted, strings.Join(msgs, "; "))
}

// Run drives every descriptor concurrently. With more than one descriptor the
// drivers are paced in lock step rounds and admitted one at a time. The first
// fatal error tears the whole run down.
func Run(ctx context.Context, params Params, descs []Descriptor, rec Recorder) error {
	params = params.withDefaults()
	if err := params.Validate(); err != nil {
		return err
	}
	if len(descs) == 0 {
		return ErrNoConnection
	}

	if params.Protocol != xnet.ProtoUDP && params.Size%xmsg.TimestampSize != 0 {
		xlog.Get(ctx).Info("Size is not a multiple of the frame size, a compensating server only answers whole frames.", zap.Int("size", params.Size))
	}

	var coord *xsync.Coordinator
	if len(descs) > 1 {
		coord = xsync.NewCoordinator(len(descs))
		if params.Interval > 0 {
			xlog.Get(ctx).Info("Interval ignored, rounds are paced by the connections.", zap.Duration("interval", params.Interval))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	var (
		mu     sync.Mutex
		runErr RunError
	)
	for _, desc := range descs {
		d := NewDriver(desc, params, coord, rec)
		g.Go(func() error {
			err := d.Run(gctx)
			if err == nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if isAbort(gctx, err) {
				runErr.Aborted++
				xlog.Get(ctx).Debug("Connection aborted.", zap.Any("err", err))
				return err
			}
			runErr.Failed = append(runErr.Failed, err.(*ConnError))
			xlog.Get(ctx).Warn("Connection failed.", zap.Any("err", err))
			if coord != nil {
				coord.Abort()
			}
			return err
		})
	}
	_ = g.Wait()

	if len(runErr.Failed) > 0 || (runErr.Aborted > 0 && ctx.Err() == nil) {
		sort.Slice(runErr.Failed, func(i, j int) bool {
			a, b := runErr.Failed[i].Desc, runErr.Failed[j].Desc
			if a.Iface != b.Iface {
				return a.Iface < b.Iface
			}
			if a.Addr != b.Addr {
				return a.Addr < b.Addr
			}
			return a.ID < b.ID
		})
		return &runErr
	}
	return ctx.Err()
}

// isAbort reports errors caused by tearing the run down rather than by the connection.
func isAbort(ctx context.Context, err error) bool {
	if errors.Is(err, xsync.ErrBroken) {
		return true
	}
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
