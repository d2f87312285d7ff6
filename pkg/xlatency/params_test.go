package xlatency

import (
	"testing"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xmsg"
	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsValidate(t *testing.T) {
	ok := Params{Protocol: xnet.ProtoUDP, Count: 1, Size: 16}.withDefaults()
	require.NoError(t, ok.Validate())
	assert.Equal(t, 1, ok.Dup)
	assert.Equal(t, DefaultTimeout, ok.Timeout)

	bad := []Params{
		{Protocol: "icmp", Count: 1, Size: 16},
		{Protocol: xnet.ProtoTCP, Count: 0, Size: 16},
		{Protocol: xnet.ProtoTCP, Count: 1, Size: MaxSize + 1},
		{Protocol: xnet.ProtoTCP, Count: 1, Size: 16, Interval: -time.Millisecond},
		{Protocol: xnet.ProtoTCP, Count: 1, Size: 16, TOS: 256},
		{Protocol: xnet.ProtoTCP, Count: 1, Size: 20, Payload: PayloadTimestamp},
		{Protocol: xnet.ProtoUDP, Count: 1, Size: 32, Payload: PayloadTimestamp},
	}
	for _, p := range bad {
		assert.Error(t, p.withDefaults().Validate(), "%+v", p)
	}

	// zero means one datagram per burst
	zero := Params{Protocol: xnet.ProtoUDP, Count: 1, Size: 16, Dup: 0}.withDefaults()
	require.NoError(t, zero.Validate())
	err := Params{Protocol: xnet.ProtoUDP, Count: 1, Size: 16, Dup: -1}.withDefaults().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dup[-1] is negative")
}

func TestRetryResolve(t *testing.T) {
	assert.Equal(t, RetryUntilReply, RetryAuto.resolve(false))
	assert.Equal(t, ReportLost, RetryAuto.resolve(true))
	assert.Equal(t, RetryUntilReply, RetryUntilReply.resolve(true))

	r, err := ParseRetryPolicy("lost")
	require.NoError(t, err)
	assert.Equal(t, ReportLost, r)
	_, err = ParseRetryPolicy("forever")
	require.Error(t, err)

	m, err := ParsePayloadMode("timestamp")
	require.NoError(t, err)
	assert.Equal(t, PayloadTimestamp, m)
}

func TestHalfRTT(t *testing.T) {
	sent := xmsg.Now()
	reply := xmsg.Encode(sent.Add(100 * time.Microsecond))

	assert.Equal(t, 200*time.Microsecond, halfRTT(PayloadTimestamp, 500*time.Microsecond, sent, reply[:]))
	assert.Equal(t, 250*time.Microsecond, halfRTT(PayloadRandom, 500*time.Microsecond, sent, reply[:]))
	// a residence longer than the rtt is not trusted
	assert.Equal(t, 40*time.Microsecond, halfRTT(PayloadTimestamp, 80*time.Microsecond, sent, reply[:]))
}

func TestFillTimestamp(t *testing.T) {
	buf := make([]byte, 48)
	ts, err := fill(PayloadTimestamp, buf)
	require.NoError(t, err)
	for off := 0; off < len(buf); off += xmsg.TimestampSize {
		got, err := xmsg.Decode(buf[off:])
		require.NoError(t, err)
		assert.Equal(t, ts, got)
	}
	assert.False(t, isStale(buf[:16], ts))
	assert.True(t, isStale(buf[:16], ts.Add(time.Second)))
}
