package xnet_test

import (
	"context"
	"io"
	"testing"

	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/stretchr/testify/require"
)

// echoFrames answers every complete 4-byte frame.
func echoFrames(ctx context.Context, state interface{}, msg []byte) (int, error) {
	if len(msg) < 4 {
		return 0, nil
	}
	sock := state.(xnet.Socket)
	return 4, sock.SendMsg(ctx, msg[:4])
}

func TestTCP(t *testing.T) {
	ctx := context.Background()

	svr, err := xnet.NewTCPServer(ctx, xnet.TCPSvrArgs{Addr: "127.0.0.1:0", OnMsg: echoFrames})
	require.NoError(t, err)
	defer svr.Close(ctx)

	conn, err := xnet.DialTCP(ctx, xnet.DialArgs{Addr: svr.Addr().String()})
	require.NoError(t, err)
	defer conn.Close()

	// split writes must be reassembled into frames
	_, err = conn.Write([]byte("ab"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("cdefgh"))
	require.NoError(t, err)

	buf := make([]byte, 8)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, "abcdefgh", string(buf))
}

func TestTCPDisconnectCallback(t *testing.T) {
	ctx := context.Background()
	done := make(chan struct{})

	svr, err := xnet.NewTCPServer(ctx, xnet.TCPSvrArgs{
		Addr:         "127.0.0.1:0",
		OnMsg:        echoFrames,
		OnDisconnect: func(ctx context.Context, state interface{}) { close(done) },
	})
	require.NoError(t, err)
	defer svr.Close(ctx)

	conn, err := xnet.DialTCP(ctx, xnet.DialArgs{Addr: svr.Addr().String()})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	<-done
}

func TestDialTCPRefused(t *testing.T) {
	ctx := context.Background()
	svr, err := xnet.NewTCPServer(ctx, xnet.TCPSvrArgs{Addr: "127.0.0.1:0", OnMsg: echoFrames})
	require.NoError(t, err)
	addr := svr.Addr().String()
	svr.Close(ctx)

	_, err = xnet.DialTCP(ctx, xnet.DialArgs{Addr: addr})
	require.Error(t, err)
}

func TestDialUnknownIface(t *testing.T) {
	ctx := context.Background()
	_, err := xnet.DialTCP(ctx, xnet.DialArgs{Iface: "no-such-if0", Addr: "127.0.0.1:1"})
	require.Error(t, err)
	_, err = xnet.DialUDP(ctx, xnet.DialArgs{Iface: "no-such-if0", Addr: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestParseProtocol(t *testing.T) {
	p, err := xnet.ParseProtocol("UDP")
	require.NoError(t, err)
	require.Equal(t, xnet.ProtoUDP, p)
	require.Equal(t, "UDP", p.Label())
	require.Equal(t, "KCP", xnet.ProtoKCP.Label())

	_, err = xnet.ParseProtocol("sctp")
	require.ErrorIs(t, err, xnet.ErrUnknownProtocol)
}
