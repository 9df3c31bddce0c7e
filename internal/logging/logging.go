// Package logging builds the structured logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

var Levels = []string{"trace", "debug", "info", "warn", "error"}

func ValidLevel(level string) bool {
	for _, l := range Levels {
		if strings.EqualFold(l, level) {
			return true
		}
	}
	return false
}

// New returns a logger writing to w at the given level. Terminals get the
// human readable console format, everything else gets JSON lines.
func New(level string, w io.Writer) *log.Logger {
	var writer log.Writer = &log.IOWriter{Writer: w}

	if f, ok := w.(*os.File); ok && log.IsTerminal(f.Fd()) {
		writer = &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: true,
		}
	}

	return &log.Logger{
		Level:  log.ParseLevel(strings.ToLower(level)),
		Writer: writer,
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *log.Logger {
	return New("error", io.Discard)
}
