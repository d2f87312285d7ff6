package xnet

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	tcpNetwork     = "tcp"
	udpNetwork     = "udp"
	readBufferSize = 1024

	// MaxDatagramSize bounds a single UDP read on the server side.
	MaxDatagramSize = 2048

	writeTimeout   = 10 * time.Second
	maxMessageSize = 64 * 1024 // websocket read limit
)

// KCP session tuning, fast mode.
const (
	kcpNoDelay    = 1
	kcpInterval   = 10
	kcpResend     = 2
	kcpNC         = 1
	kcpAckNoDelay = true
)

// Socket is one accepted connection.
type Socket interface {
	SendMsg(ctx context.Context, msg []byte) error
	RemoteAddr() net.Addr
	LocalAddr() net.Addr
}

// OnHandlerOnce consumes a prefix of msg and returns its length, 0 when more data is needed.
type OnHandlerOnce func(ctx context.Context, state interface{}, msg []byte) (int, error)

// OnConnect returns the per connection state handed to the other callbacks.
type OnConnect func(ctx context.Context, sock Socket) interface{}

type OnDisconnect func(ctx context.Context, state interface{})

// OnPacket handles one datagram and returns the reply, nil sends nothing.
// msg is only valid during the call.
type OnPacket func(ctx context.Context, msg []byte, from *net.UDPAddr) []byte

func nopConnect(ctx context.Context, sock Socket) interface{} { return sock }

func nopDisconnect(ctx context.Context, state interface{}) {}

// Protocol names a transport the echo server and drivers speak.
type Protocol string

const (
	ProtoTCP Protocol = "tcp"
	ProtoUDP Protocol = "udp"
	ProtoKCP Protocol = "kcp"
	ProtoWS  Protocol = "ws"
)

var ErrUnknownProtocol = errors.New("unknown protocol")

func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(s)); p {
	case ProtoTCP, ProtoUDP, ProtoKCP, ProtoWS:
		return p, nil
	}
	return "", errors.Wrapf(ErrUnknownProtocol, "protocol[%s]", s)
}

// Label is the upper case tag used in report lines.
func (p Protocol) Label() string {
	return strings.ToUpper(string(p))
}
