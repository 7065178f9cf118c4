// Package logging configures the bridge's structured logger.
//
// The original Dire Wolf C code picked a color per message category —
// info, error, received-frame, transmitted-frame, debug — via
// DW_COLOR_* and text_color_set(). Samoyed carried charmbracelet/log in
// its dependency graph to replace that but never wired it up; this
// package does, mapping Info/Error/Debug onto level styles and
// Received/Transmitted onto a "dir" field (Category.Fields).
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Category mirrors the five DW_COLOR_* message classes from the
// original textcolor.c.
type Category int

const (
	Info Category = iota
	Error
	Received
	Transmitted
	Debug
)

// Fields returns the structured key/value pair a caller should append
// to a log call for this category. charmbracelet/log's levels already
// distinguish Info/Error/Debug, so those categories add nothing; frame
// direction has no level of its own, so Received/Transmitted carry a
// "dir" field instead (see colors.go).
func (c Category) Fields() []interface{} {
	switch c {
	case Received:
		return []interface{}{"dir", "rx"}
	case Transmitted:
		return []interface{}{"dir", "tx"}
	default:
		return nil
	}
}

// New builds a logger writing to w (os.Stderr in normal operation).
// debug raises the level to show Debug() calls and per-frame tracing.
func New(w io.Writer, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	logger.SetStyles(categoryStyles())
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// Default returns a logger writing to stderr at Info level, the same
// logger New(os.Stderr, false) builds.
func Default() *log.Logger {
	return New(os.Stderr, false)
}

func categoryStyles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.InfoLevel] = styles.Levels[log.InfoLevel].Foreground(colorInfo)
	styles.Levels[log.ErrorLevel] = styles.Levels[log.ErrorLevel].Foreground(colorError)
	styles.Levels[log.DebugLevel] = styles.Levels[log.DebugLevel].Foreground(colorDebug)
	return styles
}
