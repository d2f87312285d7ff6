package xlog_test

import (
	"context"
	"testing"

	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestXLOG(t *testing.T) {
	ctx := context.Background()

	ctx = xlog.NewContext(ctx, zap.String(xlog.FieldProto, "tcp"))
	xlog.Get(ctx).Debug("Debug line.")
	ctx = xlog.NewContext(ctx, zap.String(xlog.FieldDest, "127.0.0.1:65432"))
	xlog.Get(ctx).Info("Info line.")
	ctx = xlog.NewContext(ctx, zap.Int(xlog.FieldConn, 3))
	xlog.Get(ctx).Warn("Warn line.")
	xlog.Get(ctx).Error("Error line.")
}

func TestGetWithoutContext(t *testing.T) {
	//nolint:staticcheck
	require.NotNil(t, xlog.Get(nil))
	require.NotNil(t, xlog.Get(context.Background()).Raw())
}

func TestSetLevel(t *testing.T) {
	require.NoError(t, xlog.SetLevel("debug"))
	require.NoError(t, xlog.SetLevel("INFO"))
	require.Error(t, xlog.SetLevel("loud"))
}

func TestInit(t *testing.T) {
	require.NoError(t, xlog.Init(xlog.Options{Level: "warn", JSON: true}))
	xlog.Get(context.Background()).Warn("Json line.")
	require.NoError(t, xlog.Init(xlog.Options{Level: "info"}))
	require.Error(t, xlog.Init(xlog.Options{Level: "nope"}))
}

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := xlog.WithLogger(context.Background(), zap.New(core))
	ctx = xlog.NewContext(ctx, zap.String(xlog.FieldDest, "127.0.0.1:65432"))
	xlog.Get(ctx).Info("Info line.")
	xlog.Get(ctx).Debug("Debug line.")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "127.0.0.1:65432", entries[0].ContextMap()[xlog.FieldDest])
}
