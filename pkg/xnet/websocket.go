package xnet

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type WebsocketArgs struct {
	conn         *websocket.Conn
	idleTimeout  time.Duration
	onMsg        OnHandlerOnce
	onConnect    OnConnect
	onDisconnect OnDisconnect
}

// Websocket serves one upgraded connection, one onMsg call per message.
type Websocket struct {
	conn         *websocket.Conn
	idleTimeout  time.Duration
	onMsg        OnHandlerOnce
	onConnect    OnConnect
	onDisconnect OnDisconnect

	writeMu   sync.Mutex
	closeOnce sync.Once
	wg        xcommon.WaitGroup
}

func NewWebsocket(ctx context.Context, arg WebsocketArgs) *Websocket {
	sock := &Websocket{
		conn:         arg.conn,
		idleTimeout:  arg.idleTimeout,
		onMsg:        arg.onMsg,
		onConnect:    arg.onConnect,
		onDisconnect: arg.onDisconnect,
	}
	if sock.onConnect == nil {
		sock.onConnect = nopConnect
	}
	if sock.onDisconnect == nil {
		sock.onDisconnect = nopDisconnect
	}
	sock.conn.SetReadLimit(maxMessageSize)

	sock.wg.Add(1)
	go sock.readLoop(ctx)
	return sock
}

func (sock *Websocket) readLoop(ctx context.Context) {
	defer sock.wg.Done(ctx)

	state := sock.onConnect(ctx, sock)

	var readErr error
	defer func() {
		if readErr != nil {
			xlog.Get(ctx).Warn("Read loop exit with error.", zap.Any("err", readErr))
		}
		sock.onDisconnect(ctx, state)
		sock.forceClose()
	}()

	for {
		if sock.idleTimeout > 0 {
			if err := sock.conn.SetReadDeadline(time.Now().Add(sock.idleTimeout)); err != nil {
				readErr = err
				return
			}
		}

		_, message, err := sock.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
				readErr = err
			}
			return
		}
		// messages arrive whole, the consumed count is irrelevant
		if _, err = sock.onMsg(ctx, state, message); err != nil {
			readErr = err
			return
		}
	}
}

func (sock *Websocket) SendMsg(ctx context.Context, msg []byte) error {
	sock.writeMu.Lock()
	defer sock.writeMu.Unlock()

	if err := sock.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return sock.conn.WriteMessage(websocket.BinaryMessage, msg)
}

func (sock *Websocket) Close(ctx context.Context) {
	sock.forceClose()
	sock.wg.Wait()
}

func (sock *Websocket) forceClose() {
	sock.closeOnce.Do(func() {
		sock.writeMu.Lock()
		_ = sock.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		sock.writeMu.Unlock()
		_ = sock.conn.Close()
	})
}

func (sock *Websocket) WaitUntilClose(ctx context.Context) {
	sock.wg.Wait()
}

func (sock *Websocket) RemoteAddr() net.Addr {
	return sock.conn.RemoteAddr()
}

func (sock *Websocket) LocalAddr() net.Addr {
	return sock.conn.LocalAddr()
}
