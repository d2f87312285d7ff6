package xnet

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type WSSvrArgs struct {
	Addr         string
	Path         string
	IdleTimeout  time.Duration
	OnMsg        OnHandlerOnce
	OnConnect    OnConnect
	OnDisconnect OnDisconnect
}

type WSServer struct {
	upgrader *websocket.Upgrader
	httpSrv  *http.Server
	listener net.Listener
	wg       xcommon.WaitGroup

	mu      sync.Mutex
	sockets map[*Websocket]bool
}

func NewWSServer(ctx context.Context, arg WSSvrArgs) (*WSServer, error) {
	if arg.Path == "" {
		arg.Path = "/"
	}
	listener, err := net.Listen(tcpNetwork, arg.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen addr[%s]", arg.Addr)
	}
	svr := &WSServer{
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		listener: listener,
		sockets:  make(map[*Websocket]bool),
	}

	mux := http.NewServeMux()
	mux.Handle(arg.Path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		conn, err := svr.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// the upgrader already answered
			xlog.Get(ctx).Warn("Upgrade connection failed.", zap.Any("err", err))
			return
		}
		if tcp, ok := conn.UnderlyingConn().(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		sock := NewWebsocket(ctx, WebsocketArgs{
			conn:         conn,
			idleTimeout:  arg.IdleTimeout,
			onMsg:        arg.OnMsg,
			onConnect:    arg.OnConnect,
			onDisconnect: arg.OnDisconnect,
		})
		svr.addSocket(sock)
		sock.WaitUntilClose(ctx)
		svr.delSocket(sock)
	}))

	svr.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	svr.wg.Add(1)
	go svr.serve(ctx)
	xlog.Get(ctx).Info("Start listen success.", zap.String("network", "ws"), zap.Stringer(xlog.FieldAddr, listener.Addr()), zap.String("path", arg.Path))
	return svr, nil
}

func (svr *WSServer) serve(ctx context.Context) {
	defer svr.wg.Done(ctx)
	if err := svr.httpSrv.Serve(svr.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		xlog.Get(ctx).Error("Websocket server exit with error.", zap.Any("err", err))
	}
}

func (svr *WSServer) Addr() net.Addr {
	return svr.listener.Addr()
}

func (svr *WSServer) Close(ctx context.Context) {
	_ = svr.httpSrv.Close()
	svr.wg.Wait()

	svr.mu.Lock()
	socks := make([]*Websocket, 0, len(svr.sockets))
	for sock := range svr.sockets {
		socks = append(socks, sock)
	}
	svr.mu.Unlock()

	for _, sock := range socks {
		sock.Close(ctx)
	}
	xlog.Get(ctx).Info("Websocket server stop.")
}

func (svr *WSServer) addSocket(sock *Websocket) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	svr.sockets[sock] = true
}

func (svr *WSServer) delSocket(sock *Websocket) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	delete(svr.sockets, sock)
}
