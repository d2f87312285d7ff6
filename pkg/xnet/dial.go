package xnet

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/xtaci/kcp-go"
)

const dialTimeout = 10 * time.Second

// DialArgs addresses one client connection.
type DialArgs struct {
	Iface string // source interface, empty for the routing default
	Addr  string // destination host:port
	TOS   int    // IPv4 type of service byte, 0 leaves the default
}

func (arg DialArgs) dialer(network string) (*net.Dialer, error) {
	d := &net.Dialer{Timeout: dialTimeout}
	if arg.Iface == "" {
		return d, nil
	}
	d.Control = bindControl(arg.Iface)
	laddr, err := ifaceLocalAddr(network, arg.Iface, arg.Addr)
	if err != nil {
		return nil, err
	}
	d.LocalAddr = laddr
	return d, nil
}

// DialTCP opens a TCP connection with Nagle disabled.
func DialTCP(ctx context.Context, arg DialArgs) (*net.TCPConn, error) {
	d, err := arg.dialer(tcpNetwork)
	if err != nil {
		return nil, err
	}
	conn, err := d.DialContext(ctx, tcpNetwork, arg.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial tcp %s", arg.Addr)
	}
	tcp := conn.(*net.TCPConn)
	if err := tcp.SetNoDelay(true); err != nil {
		_ = tcp.Close()
		return nil, errors.Wrap(err, "set nodelay")
	}
	if err := setTOS(tcp, arg.TOS); err != nil {
		_ = tcp.Close()
		return nil, err
	}
	return tcp, nil
}

// DialUDP binds a local endpoint and fixes its peer to arg.Addr.
func DialUDP(ctx context.Context, arg DialArgs) (*net.UDPConn, error) {
	d, err := arg.dialer(udpNetwork)
	if err != nil {
		return nil, err
	}
	conn, err := d.DialContext(ctx, udpNetwork, arg.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial udp %s", arg.Addr)
	}
	udp := conn.(*net.UDPConn)
	if err := setTOS(udp, arg.TOS); err != nil {
		_ = udp.Close()
		return nil, err
	}
	return udp, nil
}

type kcpConn struct {
	*kcp.UDPSession
	pconn net.PacketConn
}

func (c *kcpConn) Close() error {
	err := c.UDPSession.Close()
	if cerr := c.pconn.Close(); err == nil {
		err = cerr
	}
	return err
}

// DialKCP opens a KCP session in stream mode over its own UDP socket.
func DialKCP(ctx context.Context, arg DialArgs) (net.Conn, error) {
	if arg.Iface == "" && arg.TOS == 0 {
		sess, err := kcp.DialWithOptions(arg.Addr, nil, 0, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "dial kcp %s", arg.Addr)
		}
		TuneKCP(sess)
		return sess, nil
	}

	lc := net.ListenConfig{}
	laddr := ":0"
	if arg.Iface != "" {
		lc.Control = bindControl(arg.Iface)
		addr, err := ifaceLocalAddr(udpNetwork, arg.Iface, arg.Addr)
		if err != nil {
			return nil, err
		}
		if addr != nil {
			laddr = addr.String()
		}
	}
	pconn, err := lc.ListenPacket(ctx, udpNetwork, laddr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen udp %s", laddr)
	}
	if err := setPacketTOS(pconn, arg.TOS); err != nil {
		_ = pconn.Close()
		return nil, err
	}
	sess, err := kcp.NewConn(arg.Addr, nil, 0, 0, pconn)
	if err != nil {
		_ = pconn.Close()
		return nil, errors.Wrapf(err, "dial kcp %s", arg.Addr)
	}
	TuneKCP(sess)
	return &kcpConn{UDPSession: sess, pconn: pconn}, nil
}

// DialWS performs the websocket handshake against ws://Addr/path.
func DialWS(ctx context.Context, arg DialArgs, path string) (*websocket.Conn, error) {
	d, err := arg.dialer(tcpNetwork)
	if err != nil {
		return nil, err
	}
	wsDialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			tcp := conn.(*net.TCPConn)
			if err := tcp.SetNoDelay(true); err != nil {
				_ = tcp.Close()
				return nil, err
			}
			if err := setTOS(tcp, arg.TOS); err != nil {
				_ = tcp.Close()
				return nil, err
			}
			return tcp, nil
		},
		HandshakeTimeout: dialTimeout,
	}
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: "ws", Host: arg.Addr, Path: path}
	conn, _, err := wsDialer.DialContext(ctx, u.String(), http.Header{})
	if err != nil {
		return nil, errors.Wrapf(err, "dial ws %s", u.String())
	}
	conn.SetReadLimit(maxMessageSize)
	return conn, nil
}
