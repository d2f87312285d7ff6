//go:build !linux

package xnet

import (
	"net"
	"syscall"

	"github.com/pkg/errors"
)

func bindControl(iface string) func(network, address string, c syscall.RawConn) error {
	return nil
}

// ifaceLocalAddr picks the first address of iface in the family of dest.
func ifaceLocalAddr(network, iface, dest string) (net.Addr, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, errors.Wrapf(err, "interface %s", iface)
	}
	host, _, err := net.SplitHostPort(dest)
	if err != nil {
		return nil, errors.Wrapf(err, "dest %s", dest)
	}
	wantV4 := true
	if ip := net.ParseIP(host); ip != nil {
		wantV4 = ip.To4() != nil
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, errors.Wrapf(err, "interface %s addrs", iface)
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || (ipnet.IP.To4() != nil) != wantV4 {
			continue
		}
		if network == udpNetwork {
			return &net.UDPAddr{IP: ipnet.IP}, nil
		}
		return &net.TCPAddr{IP: ipnet.IP}, nil
	}
	return nil, errors.Errorf("interface %s has no usable address for %s", iface, dest)
}
