package xnet

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type streamSocketArgs struct {
	conn         net.Conn
	idleTimeout  time.Duration
	onMsg        OnHandlerOnce
	onConnect    OnConnect
	onDisconnect OnDisconnect
	releaseFn    func(ctx context.Context, sock *StreamSocket)
}

// StreamSocket serves one TCP or KCP connection: a read loop feeding onMsg
// and synchronous writes.
type StreamSocket struct {
	conn         net.Conn
	idleTimeout  time.Duration
	onMsg        OnHandlerOnce
	onConnect    OnConnect
	onDisconnect OnDisconnect
	releaseFn    func(ctx context.Context, sock *StreamSocket)
	readCaches   []byte

	writeMu   sync.Mutex
	closeOnce sync.Once
	wg        xcommon.WaitGroup
}

func newStreamSocket(ctx context.Context, arg streamSocketArgs) *StreamSocket {
	sock := &StreamSocket{
		conn:         arg.conn,
		idleTimeout:  arg.idleTimeout,
		onMsg:        arg.onMsg,
		onConnect:    arg.onConnect,
		onDisconnect: arg.onDisconnect,
		releaseFn:    arg.releaseFn,
		readCaches:   make([]byte, 0, readBufferSize),
	}
	if sock.onConnect == nil {
		sock.onConnect = nopConnect
	}
	if sock.onDisconnect == nil {
		sock.onDisconnect = nopDisconnect
	}

	sock.wg.Add(1)
	go sock.readLoop(ctx)
	return sock
}

func (sock *StreamSocket) readLoop(ctx context.Context) {
	defer sock.wg.Done(ctx)

	state := sock.onConnect(ctx, sock)

	var readErr error
	defer func() {
		if readErr != nil {
			xlog.Get(ctx).Warn("Read loop exit with error.", zap.Any("err", readErr), zap.Stringer("remote", sock.RemoteAddr()))
		}
		sock.onDisconnect(ctx, state)
		sock.forceClose()
		if sock.releaseFn != nil {
			sock.releaseFn(ctx, sock)
		}
	}()

	bp := getReadBuffer()
	defer putReadBuffer(bp)

	for {
		if sock.idleTimeout > 0 {
			if err := sock.conn.SetReadDeadline(time.Now().Add(sock.idleTimeout)); err != nil {
				readErr = err
				return
			}
		}

		n, err := sock.conn.Read(*bp)
		if err != nil {
			if err != io.EOF && errors.Cause(err) != io.ErrClosedPipe && !errors.Is(err, net.ErrClosed) {
				readErr = err
			}
			return
		}
		sock.readCaches = append(sock.readCaches, (*bp)[:n]...)

		consumed := 0
		for consumed < len(sock.readCaches) {
			c, err := sock.onMsg(ctx, state, sock.readCaches[consumed:])
			if err != nil {
				if err != io.EOF {
					readErr = err
				}
				return
			}
			if c == 0 {
				// not enough data buffered
				break
			}
			consumed += c
		}
		rest := copy(sock.readCaches, sock.readCaches[consumed:])
		sock.readCaches = sock.readCaches[:rest]
	}
}

// SendMsg writes msg fully before returning.
func (sock *StreamSocket) SendMsg(ctx context.Context, msg []byte) error {
	sock.writeMu.Lock()
	defer sock.writeMu.Unlock()

	if err := sock.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	for len(msg) > 0 {
		n, err := sock.conn.Write(msg)
		if err != nil {
			return err
		}
		msg = msg[n:]
	}
	return nil
}

func (sock *StreamSocket) Close(ctx context.Context) {
	sock.forceClose()
	sock.wg.Wait()
}

func (sock *StreamSocket) forceClose() {
	sock.closeOnce.Do(func() {
		_ = sock.conn.Close()
	})
}

func (sock *StreamSocket) RemoteAddr() net.Addr {
	return sock.conn.RemoteAddr()
}

func (sock *StreamSocket) LocalAddr() net.Addr {
	return sock.conn.LocalAddr()
}
