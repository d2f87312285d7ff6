package xlatency

import (
	"strings"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xmsg"
	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/pkg/errors"
)

const (
	MinSize        = 1
	MaxSize        = 1024
	DefaultTimeout = 3 * time.Second
	DefaultWSPath  = "/"
)

// PayloadMode selects what a packet carries.
type PayloadMode int

const (
	// PayloadRandom fills packets with random bytes.
	PayloadRandom PayloadMode = iota
	// PayloadTimestamp repeats the send timestamp in every 16-byte frame, letting
	// a compensating server report its residence time.
	PayloadTimestamp
)

func ParsePayloadMode(s string) (PayloadMode, error) {
	switch strings.ToLower(s) {
	case "", "random":
		return PayloadRandom, nil
	case "timestamp", "ts":
		return PayloadTimestamp, nil
	}
	return 0, errors.Errorf("unknown payload mode[%s]", s)
}

func (m PayloadMode) String() string {
	if m == PayloadTimestamp {
		return "timestamp"
	}
	return "random"
}

// RetryPolicy decides what a udp driver does when a whole burst times out.
type RetryPolicy int

const (
	// RetryAuto retries on a single connection and reports loss when paced.
	RetryAuto RetryPolicy = iota
	// RetryUntilReply resends the burst until a reply arrives.
	RetryUntilReply
	// ReportLost records the index as lost and moves on.
	ReportLost
)

func ParseRetryPolicy(s string) (RetryPolicy, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return RetryAuto, nil
	case "retry":
		return RetryUntilReply, nil
	case "lost":
		return ReportLost, nil
	}
	return 0, errors.Errorf("unknown retry policy[%s]", s)
}

func (r RetryPolicy) String() string {
	switch r {
	case RetryUntilReply:
		return "retry"
	case ReportLost:
		return "lost"
	}
	return "auto"
}

func (r RetryPolicy) resolve(paced bool) RetryPolicy {
	if r != RetryAuto {
		return r
	}
	if paced {
		return ReportLost
	}
	return RetryUntilReply
}

// Params are shared read only by every driver of a run.
type Params struct {
	Protocol xnet.Protocol
	Count    int
	Size     int
	Interval time.Duration // pause after each packet, ignored when paced
	Dup      int           // udp datagrams per packet
	Payload  PayloadMode
	Timeout  time.Duration // udp receive attempt bound
	Retry    RetryPolicy
	TOS      int
	WSPath   string
}

func (p Params) withDefaults() Params {
	if p.Dup == 0 {
		p.Dup = 1
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	if p.WSPath == "" {
		p.WSPath = DefaultWSPath
	}
	return p
}

func (p Params) Validate() error {
	if _, err := xnet.ParseProtocol(string(p.Protocol)); err != nil {
		return err
	}
	if p.Count < 1 {
		return errors.Errorf("count[%d] must be at least 1", p.Count)
	}
	if p.Size < MinSize || p.Size > MaxSize {
		return errors.Errorf("size[%d] out of range %d~%d", p.Size, MinSize, MaxSize)
	}
	if p.Interval < 0 {
		return errors.Errorf("interval[%v] is negative", p.Interval)
	}
	if p.Dup < 0 {
		return errors.Errorf("dup[%d] is negative", p.Dup)
	}
	if p.Timeout < 0 {
		return errors.Errorf("timeout[%v] is negative", p.Timeout)
	}
	if p.TOS < 0 || p.TOS > 255 {
		return errors.Errorf("tos[%d] out of range 0~255", p.TOS)
	}
	if p.Payload == PayloadTimestamp {
		if p.Size%xmsg.TimestampSize != 0 {
			return errors.Errorf("timestamp payload size[%d] not a multiple of %d", p.Size, xmsg.TimestampSize)
		}
		if p.Protocol == xnet.ProtoUDP && p.Size != xmsg.TimestampSize {
			return errors.Errorf("udp timestamp payload size must be %d", xmsg.TimestampSize)
		}
	}
	return nil
}
