// Package logging builds the structured loggers injected into the services.
package logging

import (
	"io"
	"strings"

	"github.com/phuslu/log"
)

// New returns a logger writing to w at level ("debug", "info", "warn",
// "error"). Format "json" writes one JSON object per line; anything else
// writes human-readable console lines.
func New(level, format string, w io.Writer) *log.Logger {
	var writer log.Writer
	if strings.EqualFold(format, "json") {
		writer = &log.IOWriter{Writer: w}
	} else {
		writer = &log.ConsoleWriter{Writer: w, EndWithMessage: true}
	}
	return &log.Logger{
		Level:      log.ParseLevel(strings.ToLower(level)),
		TimeFormat: "15:04:05",
		Writer:     writer,
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}
