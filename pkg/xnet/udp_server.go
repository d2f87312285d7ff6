package xnet

import (
	"context"
	"net"
	"sync"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type UDPSvrArgs struct {
	Addr     string
	OnPacket OnPacket
}

// UDPServer answers datagrams one at a time and keeps no per peer state.
type UDPServer struct {
	conn     *net.UDPConn
	onPacket OnPacket

	closeOnce sync.Once
	wg        xcommon.WaitGroup
}

func NewUDPServer(ctx context.Context, arg UDPSvrArgs) (*UDPServer, error) {
	udpAddr, err := net.ResolveUDPAddr(udpNetwork, arg.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve addr[%s]", arg.Addr)
	}
	conn, err := net.ListenUDP(udpNetwork, udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen addr[%s]", arg.Addr)
	}
	svr := &UDPServer{
		conn:     conn,
		onPacket: arg.OnPacket,
	}

	svr.wg.Add(1)
	go svr.readLoop(ctx)
	xlog.Get(ctx).Info("Start listen success.", zap.String("network", udpNetwork), zap.Stringer(xlog.FieldAddr, conn.LocalAddr()))
	return svr, nil
}

func (svr *UDPServer) readLoop(ctx context.Context) {
	defer svr.wg.Done(ctx)

	buf := make([]byte, MaxDatagramSize)
	for {
		n, from, err := svr.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			xlog.Get(ctx).Warn("Read udp failed.", zap.Any("err", err))
			continue
		}

		reply := svr.onPacket(ctx, buf[:n], from)
		if reply == nil {
			continue
		}
		if _, err := svr.conn.WriteToUDP(reply, from); err != nil {
			xlog.Get(ctx).Debug("Write udp failed.", zap.Any("err", err), zap.Stringer("remote", from))
		}
	}
}

func (svr *UDPServer) Addr() net.Addr {
	return svr.conn.LocalAddr()
}

func (svr *UDPServer) Close(ctx context.Context) {
	svr.closeOnce.Do(func() {
		_ = svr.conn.Close()
	})
	svr.wg.Wait()
	xlog.Get(ctx).Info("UDP server stop.")
}
