package xstats

import (
	"fmt"
	"time"
)

// Outcome of one packet index.
type Outcome int

const (
	Measured Outcome = iota
	Lost
)

func (o Outcome) String() string {
	if o == Lost {
		return "lost"
	}
	return "measured"
}

// Conn identifies the connection a sample belongs to.
type Conn struct {
	Proto string // upper case protocol tag
	Iface string
	Dest  string
	ID    int
}

func (c Conn) String() string {
	iface := c.Iface
	if iface == "" {
		iface = "default"
	}
	return fmt.Sprintf("[%s](%s,%s,%d)", c.Proto, iface, c.Dest, c.ID)
}

func (c Conn) less(o Conn) bool {
	if c.Iface != o.Iface {
		return c.Iface < o.Iface
	}
	if c.Dest != o.Dest {
		return c.Dest < o.Dest
	}
	return c.ID < o.ID
}

// Sample is the resolution of one packet index on one connection.
type Sample struct {
	Conn    Conn
	Index   int
	Outcome Outcome
	HalfRTT time.Duration // zero when Lost
	Bursts  int           // udp send bursts spent on the index
}

// Micros is the reported latency, RTT/2 truncated to microseconds.
func (s Sample) Micros() uint64 {
	if s.HalfRTT <= 0 {
		return 0
	}
	return uint64(s.HalfRTT / time.Microsecond)
}

func (s Sample) line() string {
	if s.Outcome == Lost {
		return fmt.Sprintf("%s pkt %d loss", s.Conn, s.Index)
	}
	return fmt.Sprintf("%s pkt %d received with latency %dus", s.Conn, s.Index, s.Micros())
}
