package xlatency

import (
	"crypto/rand"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xmsg"
)

// fill writes a fresh payload into buf and returns the timestamp it carries.
func fill(mode PayloadMode, buf []byte) (xmsg.Timestamp, error) {
	if mode == PayloadTimestamp {
		ts := xmsg.Now()
		for off := 0; off+xmsg.TimestampSize <= len(buf); off += xmsg.TimestampSize {
			xmsg.Put(buf[off:], ts)
		}
		return ts, nil
	}
	_, err := rand.Read(buf)
	return xmsg.Timestamp{}, err
}

// halfRTT derives RTT/2 from rtt, removing the server residence a
// compensating server added to the echoed timestamp.
func halfRTT(mode PayloadMode, rtt time.Duration, sent xmsg.Timestamp, reply []byte) time.Duration {
	if mode == PayloadTimestamp {
		if echoed, err := xmsg.Decode(reply); err == nil {
			residence := echoed.Sub(sent)
			if residence > 0 && residence < rtt {
				rtt -= residence
			}
		}
	}
	return rtt / 2
}
