package xmsg_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []xmsg.Timestamp{
		{},
		{Lo: 1},
		{Lo: math.MaxUint64},
		{Hi: 1},
		{Hi: math.MaxUint64, Lo: math.MaxUint64},
		xmsg.Now(),
	}
	for i := 0; i < 1000; i++ {
		cases = append(cases, xmsg.Timestamp{Hi: rand.Uint64(), Lo: rand.Uint64()})
	}
	for _, ts := range cases {
		b := xmsg.Encode(ts)
		got, err := xmsg.Decode(b[:])
		require.NoError(t, err)
		require.Equal(t, ts, got)
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add(uint64(0), uint64(0))
	f.Add(uint64(math.MaxUint64), uint64(1))
	f.Fuzz(func(t *testing.T, hi, lo uint64) {
		ts := xmsg.Timestamp{Hi: hi, Lo: lo}
		b := xmsg.Encode(ts)
		got, err := xmsg.Decode(b[:])
		require.NoError(t, err)
		require.Equal(t, ts, got)
	})
}

func TestBigEndianLayout(t *testing.T) {
	b := xmsg.Encode(xmsg.Timestamp{Lo: 0x0102})
	assert.Equal(t, [16]byte{14: 0x01, 15: 0x02}, b)

	b = xmsg.Encode(xmsg.Timestamp{Hi: 1})
	assert.Equal(t, byte(1), b[7])
}

func TestDecodeShort(t *testing.T) {
	_, err := xmsg.Decode(make([]byte, 15))
	require.ErrorIs(t, err, xmsg.ErrShortTimestamp)
}

func TestArithmetic(t *testing.T) {
	ts := xmsg.Timestamp{Lo: math.MaxUint64}
	next := ts.Add(time.Microsecond)
	assert.Equal(t, xmsg.Timestamp{Hi: 1}, next)
	assert.Equal(t, ts, next.Add(-time.Microsecond))
	assert.Equal(t, time.Microsecond, next.Sub(ts))
	assert.Equal(t, -time.Microsecond, ts.Sub(next))

	now := xmsg.Now()
	later := now.Add(1500 * time.Microsecond)
	assert.Equal(t, 1500*time.Microsecond, later.Sub(now))
	assert.True(t, now.Less(later))

	far := xmsg.Timestamp{Hi: 10}
	assert.Equal(t, time.Duration(math.MaxInt64), far.Sub(now))
}

func TestFromTime(t *testing.T) {
	tm := time.UnixMicro(1_700_000_000_123_456)
	ts := xmsg.FromTime(tm)
	assert.Equal(t, uint64(1_700_000_000_123_456), ts.Lo)
	assert.Equal(t, xmsg.Timestamp{}, xmsg.FromTime(time.Unix(-1, 0)))
}
