package xnet_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/stretchr/testify/require"
)

func TestKCP(t *testing.T) {
	ctx := context.Background()

	svr, err := xnet.NewKCPServer(ctx, xnet.KCPServerArgs{Addr: "127.0.0.1:0", OnMsg: echoFrames})
	require.NoError(t, err)
	defer svr.Close(ctx)

	conn, err := xnet.DialKCP(ctx, xnet.DialArgs{Addr: svr.Addr().String()})
	require.NoError(t, err)
	defer conn.Close()

	buf := make([]byte, 4)
	for i := 0; i < 5; i++ {
		_, err = conn.Write([]byte("kcp!"))
		require.NoError(t, err)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, err = io.ReadFull(conn, buf)
		require.NoError(t, err)
		require.Equal(t, "kcp!", string(buf))
	}
}
