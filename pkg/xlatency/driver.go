package xlatency

import (
	"context"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/BlackCloud37/latency-test/pkg/xstats"
	"github.com/BlackCloud37/latency-test/pkg/xsync"
	"go.uber.org/zap"
)

// Recorder receives every resolved packet.
type Recorder interface {
	Record(ctx context.Context, s xstats.Sample) error
}

// Driver runs count request/response cycles over one connection.
type Driver struct {
	desc   Descriptor
	params Params
	retry  RetryPolicy
	coord  *xsync.Coordinator // nil when not paced
	rec    Recorder
}

// NewDriver builds a driver, coord may be nil for an unpaced connection.
func NewDriver(desc Descriptor, params Params, coord *xsync.Coordinator, rec Recorder) *Driver {
	params = params.withDefaults()
	return &Driver{
		desc:   desc,
		params: params,
		retry:  params.Retry.resolve(coord != nil),
		coord:  coord,
		rec:    rec,
	}
}

// Run returns a *ConnError on failure.
func (d *Driver) Run(ctx context.Context) error {
	ctx = xlog.NewContext(ctx,
		zap.Int(xlog.FieldConn, d.desc.ID),
		zap.String(xlog.FieldProto, string(d.params.Protocol)),
		zap.String(xlog.FieldIface, d.desc.Iface),
		zap.String(xlog.FieldDest, d.desc.Addr),
	)

	p, err := dial(ctx, d.desc, d.params, d.retry)
	if err != nil {
		return d.fail(err)
	}
	// unblock stream reads when the run is torn down
	stop := context.AfterFunc(ctx, func() { _ = p.Close() })
	defer func() {
		stop()
		_ = p.Close()
	}()
	xlog.Get(ctx).Debug("Connection ready.", zap.Stringer("retry", d.retry))

	conn := d.desc.conn(d.params.Protocol)
	for i := 0; i < d.params.Count; i++ {
		res, err := d.step(ctx, p)
		if err != nil {
			return d.fail(err)
		}
		sample := xstats.Sample{Conn: conn, Index: i, Outcome: res.outcome, HalfRTT: res.half, Bursts: res.bursts}
		if err := d.rec.Record(ctx, sample); err != nil {
			return d.fail(err)
		}

		if d.coord != nil {
			if err := d.coord.Rendezvous(ctx); err != nil {
				return d.fail(err)
			}
			continue
		}
		if d.params.Interval > 0 {
			if err := sleep(ctx, d.params.Interval); err != nil {
				return d.fail(err)
			}
		}
	}
	return nil
}

// step resolves one packet, holding the admission permit while in flight.
func (d *Driver) step(ctx context.Context, p pinger) (result, error) {
	if d.coord == nil {
		return p.ping(ctx)
	}
	if err := d.coord.Admit(ctx); err != nil {
		return result{}, err
	}
	defer d.coord.Done()
	return p.ping(ctx)
}

func (d *Driver) fail(err error) error {
	return &ConnError{Proto: d.params.Protocol, Desc: d.desc, Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
