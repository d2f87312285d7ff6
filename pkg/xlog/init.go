package xlog

import (
	"os"
	"strings"

	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls the process wide logger built by Init.
type Options struct {
	Level string // debug|info|warn|error
	JSON  bool   // ECS json lines instead of the colored console format
	Quiet bool   // drop all output, used by tests and benchmarks
}

var (
	gLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	gLogger Logger
)

func init() {
	gLogger = initLogger(Options{})
}

// Init replaces the global logger. Loggers already bound to a context keep
// the previous core but share the atomic level.
func Init(opts Options) error {
	if opts.Level != "" {
		if err := SetLevel(opts.Level); err != nil {
			return err
		}
	}
	gLogger = initLogger(opts)
	return nil
}

// SetLevel changes the minimum enabled level at runtime.
func SetLevel(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return err
	}
	gLevel.SetLevel(lvl)
	return nil
}

func getEncoder(json bool) zapcore.Encoder {
	config := ecsCompatibleEncoder(!json)
	config.TimeKey = FieldTimestamp
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	if json {
		return zapcore.NewJSONEncoder(config)
	}
	return zapcore.NewConsoleEncoder(config)
}

// Elastic Common Schema compatible fields so logs can be shipped to ELK as is.
func ecsCompatibleEncoder(withColor bool) zapcore.EncoderConfig {
	return ecszap.EncoderConfig{
		EnableName:       true,
		EncodeName:       zapcore.FullNameEncoder,
		EnableStackTrace: true,
		EnableCaller:     true,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      customLevelEncoder(withColor),
		EncodeDuration:   zapcore.StringDurationEncoder,
	}.ToZapCoreEncoderConfig()
}

func defaultOptions() []zap.Option {
	return []zap.Option{
		zap.WithCaller(true),
		zap.AddStacktrace(zap.NewAtomicLevelAt(zap.DPanicLevel)),
	}
}

func initLogger(opts Options) Logger {
	// Logs go to stderr, stdout carries the measurement report.
	writerSinker := zapcore.Lock(os.Stderr)
	if opts.Quiet {
		writerSinker = zapcore.Lock(zapcore.NewMultiWriteSyncer())
	}
	core := zapcore.NewCore(getEncoder(opts.JSON), writerSinker, gLevel)
	return newLogger(zap.New(core, defaultOptions()...))
}
