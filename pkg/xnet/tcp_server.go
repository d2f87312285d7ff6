package xnet

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type TCPSvrArgs struct {
	Addr         string
	IdleTimeout  time.Duration // 0 keeps idle connections forever
	OnMsg        OnHandlerOnce
	OnConnect    OnConnect
	OnDisconnect OnDisconnect
}

type TCPServer struct {
	wg       xcommon.WaitGroup
	listener *net.TCPListener
	closeCh  chan struct{}
	arg      TCPSvrArgs

	mu      sync.Mutex
	sockets map[*StreamSocket]bool
}

func NewTCPServer(ctx context.Context, arg TCPSvrArgs) (*TCPServer, error) {
	tcpAddr, err := net.ResolveTCPAddr(tcpNetwork, arg.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve addr[%s]", arg.Addr)
	}
	listener, err := net.ListenTCP(tcpNetwork, tcpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen addr[%s]", arg.Addr)
	}
	svr := &TCPServer{
		listener: listener,
		closeCh:  make(chan struct{}),
		arg:      arg,
		sockets:  make(map[*StreamSocket]bool),
	}
	svr.wg.Add(1)
	go svr.accept(ctx)
	xlog.Get(ctx).Info("Start listen success.", zap.String("network", tcpNetwork), zap.Stringer(xlog.FieldAddr, listener.Addr()))
	return svr, nil
}

func (svr *TCPServer) accept(ctx context.Context) {
	defer svr.wg.Done(ctx)

	for {
		conn, err := svr.listener.AcceptTCP()

		select {
		case <-svr.closeCh:
			if conn != nil {
				_ = conn.Close()
			}
			xlog.Get(ctx).Debug("Tcp listener close.")
			return
		default:
		}

		if err != nil {
			xlog.Get(ctx).Warn("Accept tcp failed.", zap.Any("err", err))
			continue
		}
		if err := conn.SetNoDelay(true); err != nil {
			xlog.Get(ctx).Warn("Set nodelay failed.", zap.Any("err", err))
		}
		s := newStreamSocket(ctx, streamSocketArgs{
			conn:         conn,
			idleTimeout:  svr.arg.IdleTimeout,
			onMsg:        svr.arg.OnMsg,
			onConnect:    svr.arg.OnConnect,
			onDisconnect: svr.arg.OnDisconnect,
			releaseFn:    svr.delSocket,
		})
		svr.addSocket(s)
	}
}

// Addr is the bound listen address, useful with port 0.
func (svr *TCPServer) Addr() net.Addr {
	return svr.listener.Addr()
}

func (svr *TCPServer) Close(ctx context.Context) {
	close(svr.closeCh)
	_ = svr.listener.Close()
	svr.wg.Wait()

	for _, sock := range svr.snapshot() {
		sock.Close(ctx)
	}
	xlog.Get(ctx).Info("TCP server stop.")
}

func (svr *TCPServer) snapshot() []*StreamSocket {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	socks := make([]*StreamSocket, 0, len(svr.sockets))
	for sock := range svr.sockets {
		socks = append(socks, sock)
	}
	return socks
}

func (svr *TCPServer) addSocket(s *StreamSocket) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.sockets[s] = true
}

func (svr *TCPServer) delSocket(ctx context.Context, s *StreamSocket) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	delete(svr.sockets, s)
}
