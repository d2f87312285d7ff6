package xecho

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode selects what the server writes back.
type Mode int

const (
	// ModeCompensated adds to every 16-byte timestamp frame the time the handler held it,
	// from decoding the frame to building the reply. Kernel delivery and the write are
	// outside that window, so the reply is in practice the original timestamp.
	ModeCompensated Mode = iota
	// ModeRaw echoes the payload untouched.
	ModeRaw
)

var ErrUnknownMode = errors.New("unknown echo mode")

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "compensated":
		return ModeCompensated, nil
	case "raw":
		return ModeRaw, nil
	}
	return 0, errors.Wrapf(ErrUnknownMode, "mode[%s]", s)
}

func (m Mode) String() string {
	switch m {
	case ModeCompensated:
		return "compensated"
	case ModeRaw:
		return "raw"
	}
	return "unknown"
}
