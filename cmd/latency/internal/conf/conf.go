// Package conf builds the latency command configuration from LATENCY_*
// variables and flags. Explicit flags win over the environment.
package conf

import (
	"flag"
	"time"

	"github.com/BlackCloud37/latency-test/pkg/xecho"
	"github.com/BlackCloud37/latency-test/pkg/xenv"
	"github.com/BlackCloud37/latency-test/pkg/xlatency"
	"github.com/BlackCloud37/latency-test/pkg/xlog"
	"github.com/BlackCloud37/latency-test/pkg/xnet"
	"github.com/pkg/errors"
)

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	JSON  bool   `env:"LOG_JSON"`
}

func (c *LogConfig) bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Level, "log-level", c.Level, "log level (debug|info|warn|error)")
	fs.BoolVar(&c.JSON, "log-json", c.JSON, "log ECS json lines")
}

func (c LogConfig) Options() xlog.Options {
	return xlog.Options{Level: c.Level, JSON: c.JSON}
}

type ServerConfig struct {
	Log         LogConfig
	Addr        string        `env:"ADDR" envDefault:":65432"`
	Proto       string        `env:"PROTO" envDefault:"tcp"`
	Mode        string        `env:"MODE" envDefault:"compensated"`
	Loss        uint          `env:"LOSS"`
	DropEvery   int           `env:"DROP_EVERY"`
	WSPath      string        `env:"WS_PATH" envDefault:"/"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT"`
}

func (c *ServerConfig) bind(fs *flag.FlagSet) {
	c.Log.bind(fs)
	fs.StringVar(&c.Addr, "addr", c.Addr, "listen addr")
	fs.StringVar(&c.Proto, "proto", c.Proto, "protocol (tcp|udp|kcp|ws)")
	fs.StringVar(&c.Mode, "mode", c.Mode, "echo mode (compensated|raw)")
	fs.UintVar(&c.Loss, "loss", c.Loss, "udp: drop packets 0~100 percent")
	fs.IntVar(&c.DropEvery, "drop-every", c.DropEvery, "udp: drop every n-th packet, 0 disables")
	fs.StringVar(&c.WSPath, "ws-path", c.WSPath, "ws: upgrade path")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "close idle stream connections, 0 never")
}

// ParseServer reads the server configuration from the process environment and args.
func ParseServer(args []string) (*ServerConfig, error) {
	return parseServer(args, nil)
}

func parseServer(args []string, environ map[string]string) (*ServerConfig, error) {
	c := &ServerConfig{}
	if err := xenv.LoadFrom(c, environ); err != nil {
		return nil, errors.Wrap(err, "load env")
	}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	c.bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected args %v", fs.Args())
	}
	return c, nil
}

// Args validates c and converts it for xecho.NewServer.
func (c *ServerConfig) Args() (xecho.Args, error) {
	proto, err := xnet.ParseProtocol(c.Proto)
	if err != nil {
		return xecho.Args{}, err
	}
	mode, err := xecho.ParseMode(c.Mode)
	if err != nil {
		return xecho.Args{}, err
	}
	if c.Loss > 100 {
		return xecho.Args{}, errors.Errorf("loss[%d] out of range 0~100", c.Loss)
	}
	if c.DropEvery < 0 {
		return xecho.Args{}, errors.Errorf("drop-every[%d] is negative", c.DropEvery)
	}
	return xecho.Args{
		Addr:        c.Addr,
		Protocol:    proto,
		Mode:        mode,
		Loss:        uint32(c.Loss),
		DropEvery:   c.DropEvery,
		Path:        c.WSPath,
		IdleTimeout: c.IdleTimeout,
	}, nil
}

type ClientConfig struct {
	Log      LogConfig
	Proto    string        `env:"PROTO" envDefault:"tcp"`
	Count    int           `env:"COUNT" envDefault:"100"`
	Size     int           `env:"SIZE" envDefault:"16"`
	Dup      int           `env:"DUP" envDefault:"1"`
	Interval int           `env:"INTERVAL" envDefault:"0"` // milliseconds
	Quiet    bool          `env:"QUIET"`
	Payload  string        `env:"PAYLOAD" envDefault:"random"`
	Iface    string        `env:"IFACE"`
	Conns    string        `env:"CONNS"` // connection list json file
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"3s"`
	Retry    string        `env:"RETRY" envDefault:"auto"`
	TOS      int           `env:"TOS"`
	WSPath   string        `env:"WS_PATH" envDefault:"/"`
	Metrics  string        `env:"METRICS"` // prometheus listen addr, empty disables
	Dest     string        `env:"DEST"`    // host:port, the positional arg wins
}

func (c *ClientConfig) bind(fs *flag.FlagSet) {
	c.Log.bind(fs)
	fs.StringVar(&c.Proto, "proto", c.Proto, "protocol (tcp|udp|kcp|ws)")
	fs.IntVar(&c.Count, "count", c.Count, "packets per connection")
	fs.IntVar(&c.Size, "size", c.Size, "payload size 1~1024")
	fs.IntVar(&c.Dup, "dup", c.Dup, "udp: datagrams sent per packet")
	fs.IntVar(&c.Interval, "interval", c.Interval, "pause between packets in ms")
	fs.BoolVar(&c.Quiet, "quiet", c.Quiet, "only print the summary")
	fs.StringVar(&c.Payload, "payload", c.Payload, "payload (random|timestamp)")
	fs.StringVar(&c.Iface, "iface", c.Iface, "source interface")
	fs.StringVar(&c.Conns, "conns", c.Conns, "connection list json file")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "udp: receive timeout per attempt")
	fs.StringVar(&c.Retry, "retry", c.Retry, "udp: on burst timeout (auto|retry|lost)")
	fs.IntVar(&c.TOS, "tos", c.TOS, "ipv4 type of service byte")
	fs.StringVar(&c.WSPath, "ws-path", c.WSPath, "ws: upgrade path")
	fs.StringVar(&c.Metrics, "metrics", c.Metrics, "serve prometheus metrics on addr")
}

// ParseClient reads the client configuration from the process environment and
// args, the destination is the only positional arg.
func ParseClient(args []string) (*ClientConfig, error) {
	return parseClient(args, nil)
}

func parseClient(args []string, environ map[string]string) (*ClientConfig, error) {
	c := &ClientConfig{}
	if err := xenv.LoadFrom(c, environ); err != nil {
		return nil, errors.Wrap(err, "load env")
	}
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	c.bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		c.Dest = fs.Arg(0)
	default:
		return nil, errors.Errorf("unexpected args %v", fs.Args()[1:])
	}
	if c.Dest == "" && c.Conns == "" {
		return nil, errors.New("destination host:port or -conns is required")
	}
	return c, nil
}

func (c *ClientConfig) Params() (xlatency.Params, error) {
	proto, err := xnet.ParseProtocol(c.Proto)
	if err != nil {
		return xlatency.Params{}, err
	}
	payload, err := xlatency.ParsePayloadMode(c.Payload)
	if err != nil {
		return xlatency.Params{}, err
	}
	retry, err := xlatency.ParseRetryPolicy(c.Retry)
	if err != nil {
		return xlatency.Params{}, err
	}
	if c.Dup < 1 {
		return xlatency.Params{}, errors.Errorf("dup[%d] must be at least 1", c.Dup)
	}
	p := xlatency.Params{
		Protocol: proto,
		Count:    c.Count,
		Size:     c.Size,
		Interval: time.Duration(c.Interval) * time.Millisecond,
		Dup:      c.Dup,
		Payload:  payload,
		Timeout:  c.Timeout,
		Retry:    retry,
		TOS:      c.TOS,
		WSPath:   c.WSPath,
	}
	return p, p.Validate()
}

// Descriptors expands the connection list file, or the single destination
// when no list is given.
func (c *ClientConfig) Descriptors() ([]xlatency.Descriptor, error) {
	if c.Conns == "" {
		if err := checkAddr(c.Dest); err != nil {
			return nil, err
		}
		return []xlatency.Descriptor{{Iface: c.Iface, Addr: c.Dest}}, nil
	}
	list, err := LoadConnectionsFile(c.Conns)
	if err != nil {
		return nil, err
	}
	descs := xlatency.Expand(list)
	if len(descs) == 0 {
		return nil, errors.Errorf("connection list %s is empty", c.Conns)
	}
	return descs, nil
}
