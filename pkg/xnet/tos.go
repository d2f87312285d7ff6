package xnet

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
)

func isIPv4(addr net.Addr) bool {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP.To4() != nil
	case *net.UDPAddr:
		return a.IP.To4() != nil
	}
	return false
}

// setTOS marks outgoing IPv4 packets of conn, IPv6 peers are left alone.
func setTOS(conn net.Conn, tos int) error {
	if tos == 0 || !isIPv4(conn.RemoteAddr()) {
		return nil
	}
	return errors.Wrap(ipv4.NewConn(conn).SetTOS(tos), "set tos")
}

func setPacketTOS(conn net.PacketConn, tos int) error {
	if tos == 0 {
		return nil
	}
	return errors.Wrap(ipv4.NewPacketConn(conn).SetTOS(tos), "set tos")
}
