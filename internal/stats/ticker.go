package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"

	"github.com/bbulkow/OpenPixelControlSerial/internal/logging"
)

// DefaultInterval is the periodic print interval from spec.md §4.9.
const DefaultInterval = 5 * time.Second

// defaultTimestampPattern is the strftime pattern used to prefix each
// ticker line, configurable the way samoyed's timestamped log lines are.
const defaultTimestampPattern = "%Y-%m-%d %H:%M:%S"

// Ticker periodically logs a snapshot of every registered output's
// counters. It is only started when --debug is set (SPEC_FULL.md §9.1).
type Ticker struct {
	logger   *log.Logger
	interval time.Duration
	pattern  string
	outputs  []*Output
}

// NewTicker builds a Ticker over outputs, logging through logger every
// interval (DefaultInterval if zero). pattern overrides the default
// strftime timestamp pattern; an empty string keeps the default.
func NewTicker(logger *log.Logger, outputs []*Output, interval time.Duration, pattern string) (*Ticker, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if pattern == "" {
		pattern = defaultTimestampPattern
	}
	if _, err := strftime.Format(pattern, time.Now()); err != nil {
		return nil, fmt.Errorf("stats: invalid timestamp pattern %q: %w", pattern, err)
	}
	return &Ticker{logger: logger, interval: interval, pattern: pattern, outputs: outputs}, nil
}

// Run logs a snapshot line every tick until ctx is canceled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.logOnce(now)
		}
	}
}

func (t *Ticker) logOnce(now time.Time) {
	ts, err := strftime.Format(t.pattern, now)
	if err != nil {
		ts = now.Format(time.RFC3339)
	}
	for _, o := range t.outputs {
		s := o.Snapshot()

		rxLine := fmt.Sprintf(
			"[%s] recv=%d dropped_slot=%d dropped_short=%d unknown_cmd=%d",
			ts, s.Received, s.DroppedBySlot, s.DroppedByShort, s.UnknownCommand,
		)
		rxKV := append([]interface{}{"output", s.Name}, logging.Received.Fields()...)
		t.logger.Info(rxLine, rxKV...)

		txLine := fmt.Sprintf(
			"[%s] written=%d last_write_us=%d negotiation_failures=%d",
			ts, s.Written, s.LastWriteMicros, s.NegotiationFailure,
		)
		if s.LastError != "" {
			txLine += " last_err=" + strings.ReplaceAll(s.LastError, "\n", " ")
		}
		txKV := append([]interface{}{"output", s.Name}, logging.Transmitted.Fields()...)
		t.logger.Info(txLine, txKV...)
	}
}
