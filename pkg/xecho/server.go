package xecho

import (
	"context"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/BlackCloud37/latency-test/pkg/xmsg"
	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultAddr = ":65432"

type Args struct {
	Addr        string
	Protocol    xnet.Protocol
	Mode        Mode
	Loss        uint32 // udp drop percentage 0~100
	DropEvery   int    // udp drops every n-th datagram, 0 disables
	Path        string // websocket path
	IdleTimeout time.Duration
}

type listener interface {
	Addr() net.Addr
	Close(ctx context.Context)
}

// Server echoes timestamp frames back to latency clients.
type Server struct {
	proto     xnet.Protocol
	mode      Mode
	loss      uint32
	dropEvery uint64
	rnd       *rand.Rand // only touched by the udp read loop

	received uint64
	dropped  uint64

	l listener
}

func NewServer(ctx context.Context, arg Args) (*Server, error) {
	if arg.Addr == "" {
		arg.Addr = DefaultAddr
	}
	if arg.Loss > 100 {
		return nil, errors.Errorf("loss[%d] out of range 0~100", arg.Loss)
	}
	if arg.DropEvery < 0 {
		return nil, errors.Errorf("drop every[%d] is negative", arg.DropEvery)
	}
	s := &Server{
		proto:     arg.Protocol,
		mode:      arg.Mode,
		loss:      arg.Loss,
		dropEvery: uint64(arg.DropEvery),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	ctx = xlog.NewContext(ctx, zap.String(xlog.FieldProto, string(arg.Protocol)), zap.Stringer("mode", arg.Mode))

	var err error
	switch arg.Protocol {
	case xnet.ProtoTCP:
		s.l, err = xnet.NewTCPServer(ctx, xnet.TCPSvrArgs{
			Addr:         arg.Addr,
			IdleTimeout:  arg.IdleTimeout,
			OnMsg:        s.onStream,
			OnConnect:    s.onConnect,
			OnDisconnect: s.onDisconnect,
		})
	case xnet.ProtoKCP:
		s.l, err = xnet.NewKCPServer(ctx, xnet.KCPServerArgs{
			Addr:         arg.Addr,
			IdleTimeout:  arg.IdleTimeout,
			OnMsg:        s.onStream,
			OnConnect:    s.onConnect,
			OnDisconnect: s.onDisconnect,
		})
	case xnet.ProtoUDP:
		s.l, err = xnet.NewUDPServer(ctx, xnet.UDPSvrArgs{
			Addr:     arg.Addr,
			OnPacket: s.onPacket,
		})
	case xnet.ProtoWS:
		s.l, err = xnet.NewWSServer(ctx, xnet.WSSvrArgs{
			Addr:         arg.Addr,
			Path:         arg.Path,
			IdleTimeout:  arg.IdleTimeout,
			OnMsg:        s.onMessage,
			OnConnect:    s.onConnect,
			OnDisconnect: s.onDisconnect,
		})
	default:
		return nil, errors.Wrapf(xnet.ErrUnknownProtocol, "protocol[%s]", arg.Protocol)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Addr() net.Addr {
	return s.l.Addr()
}

// Received counts datagrams seen by the udp server, dropped ones included.
func (s *Server) Received() uint64 {
	return atomic.LoadUint64(&s.received)
}

func (s *Server) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

func (s *Server) Close(ctx context.Context) {
	s.l.Close(ctx)
	if s.proto == xnet.ProtoUDP {
		xlog.Get(ctx).Info("Echo server stop.", zap.Uint64("received", s.Received()), zap.Uint64("dropped", s.Dropped()))
	}
}

func (s *Server) onConnect(ctx context.Context, sock xnet.Socket) interface{} {
	xlog.Get(ctx).Debug("Client connect.", zap.Stringer("remote", sock.RemoteAddr()))
	return sock
}

func (s *Server) onDisconnect(ctx context.Context, state interface{}) {
	xlog.Get(ctx).Debug("Client disconnect.", zap.Stringer("remote", state.(xnet.Socket).RemoteAddr()))
}

// onStream answers one 16-byte frame at a time; raw mode echoes whatever arrived.
func (s *Server) onStream(ctx context.Context, state interface{}, msg []byte) (int, error) {
	sock := state.(xnet.Socket)
	if s.mode == ModeRaw {
		return len(msg), sock.SendMsg(ctx, msg)
	}
	if len(msg) < xmsg.TimestampSize {
		return 0, nil
	}
	recvAt := time.Now()
	frame := make([]byte, xmsg.TimestampSize)
	copy(frame, msg[:xmsg.TimestampSize])
	compensate(frame, recvAt)
	return xmsg.TimestampSize, sock.SendMsg(ctx, frame)
}

// onMessage handles one websocket message made of whole frames.
func (s *Server) onMessage(ctx context.Context, state interface{}, msg []byte) (int, error) {
	sock := state.(xnet.Socket)
	if s.mode == ModeRaw {
		return len(msg), sock.SendMsg(ctx, msg)
	}
	if len(msg) == 0 || len(msg)%xmsg.TimestampSize != 0 {
		return 0, errors.Errorf("message length[%d] not a multiple of %d", len(msg), xmsg.TimestampSize)
	}
	recvAt := time.Now()
	reply := make([]byte, len(msg))
	copy(reply, msg)
	compensate(reply, recvAt)
	return len(msg), sock.SendMsg(ctx, reply)
}

func (s *Server) onPacket(ctx context.Context, msg []byte, from *net.UDPAddr) []byte {
	recvAt := time.Now()
	if s.isLoss() {
		return nil
	}
	if s.mode == ModeRaw {
		return append([]byte(nil), msg...)
	}
	if len(msg) != xmsg.TimestampSize {
		xlog.Get(ctx).Debug("Drop malformed datagram.", zap.Int("len", len(msg)), zap.Stringer("remote", from))
		atomic.AddUint64(&s.dropped, 1)
		return nil
	}
	reply := append([]byte(nil), msg...)
	compensate(reply, recvAt)
	return reply
}

// isLoss decides whether the current datagram is thrown away.
func (s *Server) isLoss() bool {
	n := atomic.AddUint64(&s.received, 1)
	if s.dropEvery > 0 && n%s.dropEvery == 0 {
		atomic.AddUint64(&s.dropped, 1)
		return true
	}
	if s.loss > 0 && s.rnd.Int31n(100) < int32(s.loss) {
		atomic.AddUint64(&s.dropped, 1)
		return true
	}
	return false
}

// compensate rewrites every frame in buf to its timestamp plus the time the handler held it since recvAt.
func compensate(buf []byte, recvAt time.Time) {
	residence := time.Since(recvAt)
	for off := 0; off+xmsg.TimestampSize <= len(buf); off += xmsg.TimestampSize {
		frame := buf[off : off+xmsg.TimestampSize]
		ts, _ := xmsg.Decode(frame)
		xmsg.Put(frame, ts.Add(residence))
	}
}
