package xenv_test

import (
	"testing"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xenv"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Count    int           `env:"COUNT" envDefault:"100"`
	Interval time.Duration `env:"INTERVAL" envDefault:"1s"`
	Quiet    bool          `env:"QUIET"`
}

func TestLoadFrom(t *testing.T) {
	var s sample
	require.NoError(t, xenv.LoadFrom(&s, map[string]string{"LATENCY_COUNT": "7", "QUIET": "true"}))
	require.Equal(t, 7, s.Count)
	require.Equal(t, time.Second, s.Interval)
	require.False(t, s.Quiet)
}

func TestLoadFromInvalid(t *testing.T) {
	var s sample
	require.Error(t, xenv.LoadFrom(&s, map[string]string{"LATENCY_COUNT": "many"}))
}
