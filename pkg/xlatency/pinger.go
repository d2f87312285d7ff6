package xlatency

import (
	"context"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/BlackCloud37/latency-test/pkg/xmsg"
	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/BlackCloud37/latency-test/pkg/xstats"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type result struct {
	outcome xstats.Outcome
	half    time.Duration
	bursts  int
}

// pinger runs the request/response cycle of one protocol.
type pinger interface {
	ping(ctx context.Context) (result, error)
	Close() error
}

func dial(ctx context.Context, desc Descriptor, p Params, retry RetryPolicy) (pinger, error) {
	arg := desc.dialArgs(p)
	switch p.Protocol {
	case xnet.ProtoTCP:
		conn, err := xnet.DialTCP(ctx, arg)
		if err != nil {
			return nil, err
		}
		return newStreamPinger(conn, p), nil
	case xnet.ProtoKCP:
		conn, err := xnet.DialKCP(ctx, arg)
		if err != nil {
			return nil, err
		}
		return newStreamPinger(conn, p), nil
	case xnet.ProtoUDP:
		conn, err := xnet.DialUDP(ctx, arg)
		if err != nil {
			return nil, err
		}
		return &udpPinger{
			conn:    conn,
			mode:    p.Payload,
			dup:     p.Dup,
			timeout: p.Timeout,
			retry:   retry,
			out:     make([]byte, p.Size),
			in:      make([]byte, xnet.MaxDatagramSize),
		}, nil
	case xnet.ProtoWS:
		conn, err := xnet.DialWS(ctx, arg, p.WSPath)
		if err != nil {
			return nil, err
		}
		return &wsPinger{conn: conn, mode: p.Payload, out: make([]byte, p.Size)}, nil
	}
	return nil, errors.Wrapf(xnet.ErrUnknownProtocol, "protocol[%s]", p.Protocol)
}

// streamPinger writes size bytes and reads exactly size bytes back.
type streamPinger struct {
	conn net.Conn
	mode PayloadMode
	out  []byte
	in   []byte
}

func newStreamPinger(conn net.Conn, p Params) *streamPinger {
	return &streamPinger{conn: conn, mode: p.Payload, out: make([]byte, p.Size), in: make([]byte, p.Size)}
}

func (s *streamPinger) ping(ctx context.Context) (result, error) {
	sent, err := fill(s.mode, s.out)
	if err != nil {
		return result{}, err
	}
	start := time.Now()
	if _, err := s.conn.Write(s.out); err != nil {
		return result{}, errors.Wrap(err, "write")
	}
	if _, err := io.ReadFull(s.conn, s.in); err != nil {
		return result{}, errors.Wrap(err, "read")
	}
	rtt := time.Since(start)
	return result{outcome: xstats.Measured, half: halfRTT(s.mode, rtt, sent, s.in), bursts: 1}, nil
}

func (s *streamPinger) Close() error {
	return s.conn.Close()
}

// udpPinger sends dup copies of a packet and keeps the first reply.
type udpPinger struct {
	conn    *net.UDPConn
	mode    PayloadMode
	dup     int
	timeout time.Duration
	retry   RetryPolicy
	out     []byte
	in      []byte
}

func (u *udpPinger) ping(ctx context.Context) (result, error) {
	for bursts := 1; ; bursts++ {
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		sent, err := fill(u.mode, u.out)
		if err != nil {
			return result{}, err
		}
		start := time.Now()
		for k := 0; k < u.dup; k++ {
			if _, err := u.conn.Write(u.out); err != nil {
				return result{}, errors.Wrap(err, "write")
			}
		}

		resolved := false
		var half time.Duration
		// every attempt is made so that late duplicates do not leak into the next packet
		for k := 0; k < u.dup; k++ {
			if err := u.conn.SetReadDeadline(time.Now().Add(u.timeout)); err != nil {
				return result{}, errors.Wrap(err, "set read deadline")
			}
			n, err := u.conn.Read(u.in)
			rtt := time.Since(start)
			if err != nil {
				if failedAttempt(err) {
					continue
				}
				return result{}, errors.Wrap(err, "read")
			}
			reply := u.in[:n]
			if n != len(u.out) {
				xlog.Get(ctx).Debug("Discard reply with wrong length.", zap.Int("len", n), zap.Int("want", len(u.out)))
				continue
			}
			if u.mode == PayloadTimestamp && isStale(reply, sent) {
				continue
			}
			if !resolved {
				half = halfRTT(u.mode, rtt, sent, reply)
				resolved = true
			}
		}
		if resolved {
			return result{outcome: xstats.Measured, half: half, bursts: bursts}, nil
		}
		if u.retry == ReportLost {
			return result{outcome: xstats.Lost, bursts: bursts}, nil
		}
		xlog.Get(ctx).Debug("Burst timeout, retry.", zap.Int("bursts", bursts))
	}
}

func (u *udpPinger) Close() error {
	return u.conn.Close()
}

// failedAttempt reports receive errors that only cost one attempt.
func failedAttempt(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// icmp port unreachable surfaces on connected sockets
	return errors.Is(err, syscall.ECONNREFUSED)
}

// isStale reports a reply answering an earlier burst.
func isStale(reply []byte, sent xmsg.Timestamp) bool {
	echoed, err := xmsg.Decode(reply)
	return err != nil || echoed.Less(sent)
}

// wsPinger sends one binary message per packet.
type wsPinger struct {
	conn *websocket.Conn
	mode PayloadMode
	out  []byte
}

func (w *wsPinger) ping(ctx context.Context) (result, error) {
	sent, err := fill(w.mode, w.out)
	if err != nil {
		return result{}, err
	}
	start := time.Now()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, w.out); err != nil {
		return result{}, errors.Wrap(err, "write")
	}
	_, reply, err := w.conn.ReadMessage()
	if err != nil {
		return result{}, errors.Wrap(err, "read")
	}
	rtt := time.Since(start)
	if len(reply) != len(w.out) {
		return result{}, errors.Errorf("reply length[%d] want %d", len(reply), len(w.out))
	}
	return result{outcome: xstats.Measured, half: halfRTT(w.mode, rtt, sent, reply), bursts: 1}, nil
}

func (w *wsPinger) Close() error {
	return w.conn.Close()
}
