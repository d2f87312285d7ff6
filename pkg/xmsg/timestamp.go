package xmsg

import (
	"encoding/binary"
	"math"
	"math/bits"
	"time"

	"github.com/pkg/errors"
)

// TimestampSize is the wire size of a Timestamp.
const TimestampSize = 16

var ErrShortTimestamp = errors.New("timestamp needs 16 bytes")

// Timestamp is an unsigned 128-bit count of microseconds since the unix epoch.
type Timestamp struct {
	Hi uint64
	Lo uint64
}

func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime truncates t to microseconds. Times before the epoch map to zero.
func FromTime(t time.Time) Timestamp {
	us := t.UnixMicro()
	if us < 0 {
		return Timestamp{}
	}
	return Timestamp{Lo: uint64(us)}
}

// Put writes ts big-endian into buf[:16].
func Put(buf []byte, ts Timestamp) {
	_ = buf[TimestampSize-1]
	binary.BigEndian.PutUint64(buf[0:8], ts.Hi)
	binary.BigEndian.PutUint64(buf[8:16], ts.Lo)
}

func Encode(ts Timestamp) [TimestampSize]byte {
	var b [TimestampSize]byte
	Put(b[:], ts)
	return b
}

// Decode reads the first 16 bytes of buf.
func Decode(buf []byte) (Timestamp, error) {
	if len(buf) < TimestampSize {
		return Timestamp{}, ErrShortTimestamp
	}
	return Timestamp{
		Hi: binary.BigEndian.Uint64(buf[0:8]),
		Lo: binary.BigEndian.Uint64(buf[8:16]),
	}, nil
}

// Add shifts ts by d at microsecond resolution, wrapping modulo 2^128.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	us := d.Microseconds()
	if us >= 0 {
		lo, carry := bits.Add64(ts.Lo, uint64(us), 0)
		return Timestamp{Hi: ts.Hi + carry, Lo: lo}
	}
	lo, borrow := bits.Sub64(ts.Lo, uint64(-us), 0)
	return Timestamp{Hi: ts.Hi - borrow, Lo: lo}
}

// Sub returns ts-o, saturated to the time.Duration range.
func (ts Timestamp) Sub(o Timestamp) time.Duration {
	if ts.Less(o) {
		return -o.Sub(ts)
	}
	lo, borrow := bits.Sub64(ts.Lo, o.Lo, 0)
	hi := ts.Hi - o.Hi - borrow
	if hi != 0 || lo > uint64(math.MaxInt64/int64(time.Microsecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(lo) * time.Microsecond
}

func (ts Timestamp) Less(o Timestamp) bool {
	if ts.Hi != o.Hi {
		return ts.Hi < o.Hi
	}
	return ts.Lo < o.Lo
}
