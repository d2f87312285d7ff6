package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BlackCloud37/latency-test/cmd/latency/internal/conf"
	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlatency"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/BlackCloud37/latency-test/pkg/xstats"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func runClient(ctx context.Context, args []string) error {
	c, err := conf.ParseClient(args)
	if err != nil {
		return err
	}
	if err := xlog.Init(c.Log.Options()); err != nil {
		return err
	}
	params, err := c.Params()
	if err != nil {
		return err
	}
	descs, err := c.Descriptors()
	if err != nil {
		return err
	}

	var metrics *xstats.Metrics
	if c.Metrics != "" {
		reg := prometheus.NewRegistry()
		if metrics, err = xstats.NewMetrics(reg); err != nil {
			return err
		}
		stop, err := serveMetrics(ctx, c.Metrics, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	reporter, err := xstats.NewReporter(ctx, xstats.ReporterArgs{Quiet: c.Quiet, Out: os.Stdout, Metrics: metrics})
	if err != nil {
		return err
	}
	defer reporter.Close(ctx)

	xlog.Get(ctx).Info("Start client.",
		zap.String(xlog.FieldProto, string(params.Protocol)),
		zap.Int("conns", len(descs)),
		zap.Int("count", params.Count),
		zap.Int("size", params.Size),
	)
	runCtx, stop := xcommon.SignalContext(ctx)
	defer stop()
	runErr := xlatency.Run(runCtx, params, descs, reporter)

	sum, err := reporter.Summary(ctx)
	if err != nil {
		return err
	}
	if sum.Global.Count+sum.Global.Lost > 0 {
		sum.Print(ctx, os.Stdout)
	}
	return runErr
}

// serveMetrics exposes reg on addr until the returned stop is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) (func(), error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen metrics addr[%s]", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	var wg xcommon.WaitGroup
	wg.Go(ctx, func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			xlog.Get(ctx).Warn("Metrics server exit.", zap.Any("err", err))
		}
	})
	xlog.Get(ctx).Info("Serve metrics.", zap.Stringer(xlog.FieldAddr, l.Addr()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		wg.Wait()
	}, nil
}
