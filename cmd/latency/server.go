package main

import (
	"context"

	"github.com/BlackCloud37/latency-test/cmd/latency/internal/conf"
	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xecho"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"go.uber.org/zap"
)

func runServer(ctx context.Context, args []string) error {
	c, err := conf.ParseServer(args)
	if err != nil {
		return err
	}
	if err := xlog.Init(c.Log.Options()); err != nil {
		return err
	}
	arg, err := c.Args()
	if err != nil {
		return err
	}

	svr, err := xecho.NewServer(ctx, arg)
	if err != nil {
		return err
	}
	defer svr.Close(ctx)
	xlog.Get(ctx).Info("Start server.", zap.Stringer(xlog.FieldAddr, svr.Addr()), zap.String(xlog.FieldProto, string(arg.Protocol)), zap.Stringer("mode", arg.Mode))

	xcommon.UntilSignal(ctx)
	return nil
}
