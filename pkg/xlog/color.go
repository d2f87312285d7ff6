package xlog

import "fmt"

// Foreground colors, borrowed from zap/internal/color.
const (
	colorRed termColor = iota + 31
	_
	colorYellow
	colorBlue
	colorMagenta
)

type termColor uint8

// Add wraps s in the escape sequence of the color.
func (c termColor) Add(s string) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", uint8(c), s)
}
