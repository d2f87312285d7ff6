package xnet_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/stretchr/testify/require"
)

func TestUDP(t *testing.T) {
	ctx := context.Background()

	svr, err := xnet.NewUDPServer(ctx, xnet.UDPSvrArgs{
		Addr: "127.0.0.1:0",
		OnPacket: func(ctx context.Context, msg []byte, from *net.UDPAddr) []byte {
			if string(msg) == "drop" {
				return nil
			}
			return append([]byte(nil), msg...)
		},
	})
	require.NoError(t, err)
	defer svr.Close(ctx)

	conn, err := xnet.DialUDP(ctx, xnet.DialArgs{Addr: svr.Addr().String(), TOS: 0x10})
	require.NoError(t, err)
	defer conn.Close()

	buf := make([]byte, 64)
	for i := 0; i < 10; i++ {
		_, err = conn.Write([]byte("ping"))
		require.NoError(t, err)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		n, err := conn.Read(buf)
		require.NoError(t, err)
		require.Equal(t, "ping", string(buf[:n]))
	}

	_, err = conn.Write([]byte("drop"))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, err = conn.Read(buf)
	var nerr net.Error
	require.ErrorAs(t, err, &nerr)
	require.True(t, nerr.Timeout())
}
