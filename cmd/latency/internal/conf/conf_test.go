package conf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xecho"
	"github.com/BlackCloud37/latency-test/pkg/xlatency"
	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerDefaults(t *testing.T) {
	c, err := parseServer(nil, map[string]string{})
	require.NoError(t, err)

	args, err := c.Args()
	require.NoError(t, err)
	want := xecho.Args{Addr: ":65432", Protocol: xnet.ProtoTCP, Mode: xecho.ModeCompensated, Path: "/"}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "info", c.Log.Level)
}

func TestServerFlagsOverEnv(t *testing.T) {
	environ := map[string]string{
		"LATENCY_PROTO":      "udp",
		"LATENCY_LOSS":       "20",
		"LATENCY_DROP_EVERY": "4",
		"LATENCY_LOG_JSON":   "true",
	}
	c, err := parseServer([]string{"-proto", "kcp", "-mode", "raw", "-addr", "127.0.0.1:9000"}, environ)
	require.NoError(t, err)

	args, err := c.Args()
	require.NoError(t, err)
	want := xecho.Args{Addr: "127.0.0.1:9000", Protocol: xnet.ProtoKCP, Mode: xecho.ModeRaw, Loss: 20, DropEvery: 4, Path: "/"}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, c.Log.Options().JSON)
}

func TestServerInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"-proto", "sctp"},
		{"-mode", "mirror"},
		{"-loss", "101"},
		{"-drop-every", "-1"},
	} {
		c, err := parseServer(args, map[string]string{})
		require.NoError(t, err)
		_, err = c.Args()
		assert.Error(t, err, "%v", args)
	}

	_, err := parseServer([]string{"extra"}, map[string]string{})
	require.Error(t, err)
}

func TestClientSingle(t *testing.T) {
	c, err := parseClient([]string{"-proto", "udp", "-dup", "3", "-interval", "10", "-iface", "lo", "127.0.0.1:65432"}, map[string]string{
		"LATENCY_COUNT": "20",
		"LATENCY_DUP":   "5",
	})
	require.NoError(t, err)

	p, err := c.Params()
	require.NoError(t, err)
	want := xlatency.Params{
		Protocol: xnet.ProtoUDP,
		Count:    20,
		Size:     16,
		Interval: 10 * time.Millisecond,
		Dup:      3,
		Timeout:  3 * time.Second,
		WSPath:   "/",
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}

	descs, err := c.Descriptors()
	require.NoError(t, err)
	assert.Equal(t, []xlatency.Descriptor{{Iface: "lo", Addr: "127.0.0.1:65432"}}, descs)
}

func TestClientInvalid(t *testing.T) {
	_, err := parseClient(nil, map[string]string{})
	require.Error(t, err, "destination is required")

	_, err = parseClient([]string{"a:1", "b:2"}, map[string]string{})
	require.Error(t, err)

	for _, args := range [][]string{
		{"-count", "0", "h:1"},
		{"-size", "1025", "h:1"},
		{"-size", "0", "h:1"},
		{"-dup", "0", "h:1"},
		{"-interval", "-1", "h:1"},
		{"-payload", "zeros", "h:1"},
		{"-retry", "never", "h:1"},
		{"-proto", "quic", "h:1"},
	} {
		c, err := parseClient(args, map[string]string{})
		require.NoError(t, err)
		_, err = c.Params()
		assert.Error(t, err, "%v", args)
	}

	c, err := parseClient([]string{"no-port"}, map[string]string{})
	require.NoError(t, err)
	_, err = c.Descriptors()
	require.Error(t, err)
}

func TestClientConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conns.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"eth0": {"10.0.0.1:9000": 3}}`), 0o644))

	c, err := parseClient([]string{"-conns", path}, map[string]string{})
	require.NoError(t, err)
	descs, err := c.Descriptors()
	require.NoError(t, err)
	want := []xlatency.Descriptor{
		{Iface: "eth0", Addr: "10.0.0.1:9000", ID: 0},
		{Iface: "eth0", Addr: "10.0.0.1:9000", ID: 1},
		{Iface: "eth0", Addr: "10.0.0.1:9000", ID: 2},
	}
	if diff := cmp.Diff(want, descs); diff != "" {
		t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConnections(t *testing.T) {
	list, err := LoadConnections(strings.NewReader(`{"eth0": {"10.0.0.1:9000": 2}, "eth1": {"[::1]:9000": 1}}`))
	require.NoError(t, err)
	want := map[string]map[string]int{"eth0": {"10.0.0.1:9000": 2}, "eth1": {"[::1]:9000": 1}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{
		`not json`,
		`{"eth0": ["10.0.0.1:9000"]}`,
		`{"eth0": {"10.0.0.1": 1}}`,
		`{"eth0": {"10.0.0.1:9000": -1}}`,
	} {
		_, err := LoadConnections(strings.NewReader(bad))
		assert.Error(t, err, bad)
	}

	_, err = LoadConnectionsFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
