package xnet

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/pkg/errors"
	"github.com/xtaci/kcp-go"
	"go.uber.org/zap"
)

type KCPServerArgs struct {
	Addr         string
	IdleTimeout  time.Duration
	OnMsg        OnHandlerOnce
	OnConnect    OnConnect
	OnDisconnect OnDisconnect
}

type KCPServer struct {
	wg       xcommon.WaitGroup
	listener *kcp.Listener
	closeCh  chan struct{}
	arg      KCPServerArgs

	mu      sync.Mutex
	sockets map[*StreamSocket]bool
}

func NewKCPServer(ctx context.Context, arg KCPServerArgs) (*KCPServer, error) {
	listener, err := kcp.ListenWithOptions(arg.Addr, nil, 0, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "listen addr[%s]", arg.Addr)
	}
	xlog.Get(ctx).Info("Start listen success.", zap.String("network", "kcp"), zap.Stringer(xlog.FieldAddr, listener.Addr()))

	svr := &KCPServer{
		listener: listener,
		closeCh:  make(chan struct{}),
		arg:      arg,
		sockets:  map[*StreamSocket]bool{},
	}

	svr.wg.Add(1)
	go svr.accept(ctx)
	return svr, nil
}

func (svr *KCPServer) accept(ctx context.Context) {
	defer svr.wg.Done(ctx)
	for {
		conn, err := svr.listener.AcceptKCP()

		select {
		case <-svr.closeCh:
			if conn != nil {
				_ = conn.Close()
			}
			xlog.Get(ctx).Debug("KCP listener close.")
			return
		default:
		}

		if err != nil {
			xlog.Get(ctx).Warn("Accept kcp failed.", zap.Any("err", err))
			continue
		}
		TuneKCP(conn)
		ks := newStreamSocket(ctx, streamSocketArgs{
			conn:         conn,
			idleTimeout:  svr.arg.IdleTimeout,
			onMsg:        svr.arg.OnMsg,
			onConnect:    svr.arg.OnConnect,
			onDisconnect: svr.arg.OnDisconnect,
			releaseFn:    svr.deleteSocket,
		})
		svr.addSocket(ctx, ks)
	}
}

// TuneKCP switches a session to stream mode with the fast no-delay profile.
func TuneKCP(conn *kcp.UDPSession) {
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetACKNoDelay(kcpAckNoDelay)
	conn.SetNoDelay(kcpNoDelay, kcpInterval, kcpResend, kcpNC)
}

func (svr *KCPServer) Addr() net.Addr {
	return svr.listener.Addr()
}

func (svr *KCPServer) Close(ctx context.Context) {
	close(svr.closeCh)
	_ = svr.listener.Close()
	svr.wg.Wait()

	svr.mu.Lock()
	socks := make([]*StreamSocket, 0, len(svr.sockets))
	for sock := range svr.sockets {
		socks = append(socks, sock)
	}
	svr.mu.Unlock()

	for _, sock := range socks {
		sock.Close(ctx)
	}
	xlog.Get(ctx).Debug("KCP server close success.")
}

func (svr *KCPServer) addSocket(ctx context.Context, sock *StreamSocket) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.sockets[sock] = true

	xlog.Get(ctx).Debug("Add sockets", zap.Any("count", len(svr.sockets)))
}

func (svr *KCPServer) deleteSocket(ctx context.Context, sock *StreamSocket) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	delete(svr.sockets, sock)

	xlog.Get(ctx).Debug("Del sockets", zap.Any("count", len(svr.sockets)))
}
