package xnet

import (
	"net"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// bindControl pins the socket to iface with SO_BINDTODEVICE before connect.
func bindControl(iface string) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var opErr error
		if err := c.Control(func(fd uintptr) {
			opErr = unix.BindToDevice(int(fd), iface)
		}); err != nil {
			return err
		}
		return errors.Wrapf(opErr, "bind to device %s", iface)
	}
}

// The device binding already selects the source, only check the interface exists.
func ifaceLocalAddr(network, iface, dest string) (net.Addr, error) {
	if _, err := net.InterfaceByName(iface); err != nil {
		return nil, errors.Wrapf(err, "interface %s", iface)
	}
	return nil, nil
}
