// Package stats tracks per-output counters (spec.md §4.9): frames
// received, dropped by slot replacement, dropped by short-payload skip,
// frames written, the duration of the last write, and the last error
// seen. Counters are write-mostly from the router/worker and read-only
// from the periodic ticker, so every field is an atomic.
//
// Grounded on doismellburning-samoyed's frame/byte counters in
// audio_stats.go, which the same way keep running atomic totals updated
// from the audio callback and read by a periodic reporter; this package
// generalizes that shape from "one global counter set" to "one counter
// set per output".
package stats

import (
	"sync/atomic"
	"time"
)

// Output holds the counters for a single OutputRuntime.
type Output struct {
	Name string

	received           atomic.Uint64
	droppedBySlot      atomic.Uint64
	droppedByShort     atomic.Uint64
	written            atomic.Uint64
	lastWriteMicros    atomic.Int64
	unknownCommand     atomic.Uint64
	negotiationFailure atomic.Uint64

	lastErr atomic.Value // holds string; empty means no error recorded
}

// New returns a zeroed counter set labeled name (typically the output's
// configured port path).
func New(name string) *Output {
	o := &Output{Name: name}
	o.lastErr.Store("")
	return o
}

// IncReceived records one frame handed to this output's slot by the
// router.
func (o *Output) IncReceived() { o.received.Add(1) }

// IncDroppedBySlot records one frame evicted from the slot before a
// worker observed it (spec.md §4.4).
func (o *Output) IncDroppedBySlot() { o.droppedBySlot.Add(1) }

// IncDroppedByShort records one frame the router skipped for this
// output because the inbound payload was shorter than opc_offset +
// led_count (spec.md §4.3 step 2, §7 "Short-payload").
func (o *Output) IncDroppedByShort() { o.droppedByShort.Add(1) }

// IncUnknownCommand records one OPC message addressed to this output
// whose command byte was not SetPixelCommand (spec.md §7 "Unknown
// command: ignore, count it").
func (o *Output) IncUnknownCommand() { o.unknownCommand.Add(1) }

// IncNegotiationFailure records one failed WLED handshake step: a
// Probing/Switching fallback to best-effort AdaLight, or a Switching
// write/close error that sends negotiation back to Opening (spec.md
// §7 "WLED negotiation failure: downgrade ... count it").
func (o *Output) IncNegotiationFailure() { o.negotiationFailure.Add(1) }

// RecordWrite records one successful serial write of duration d.
func (o *Output) RecordWrite(d time.Duration) {
	o.written.Add(1)
	o.lastWriteMicros.Store(d.Microseconds())
}

// RecordError records the most recent error this output's worker hit
// (port open or write failure; WLED negotiation fallbacks are counted
// by IncNegotiationFailure instead). Pass nil to clear it after a
// successful recovery.
func (o *Output) RecordError(err error) {
	if err == nil {
		o.lastErr.Store("")
		return
	}
	o.lastErr.Store(err.Error())
}

// Snapshot is a consistent-enough point-in-time read of all counters,
// for the periodic ticker and for tests.
type Snapshot struct {
	Name               string
	Received           uint64
	DroppedBySlot      uint64
	DroppedByShort     uint64
	Written            uint64
	LastWriteMicros    int64
	UnknownCommand     uint64
	NegotiationFailure uint64
	LastError          string
}

// Snapshot reads every counter. Individual fields are read atomically
// but not as a single transaction, matching spec.md §5's "readers get a
// consistent snapshot via per-counter atomic read" (not a global lock).
func (o *Output) Snapshot() Snapshot {
	return Snapshot{
		Name:               o.Name,
		Received:           o.received.Load(),
		DroppedBySlot:      o.droppedBySlot.Load(),
		DroppedByShort:     o.droppedByShort.Load(),
		Written:            o.written.Load(),
		LastWriteMicros:    o.lastWriteMicros.Load(),
		UnknownCommand:     o.unknownCommand.Load(),
		NegotiationFailure: o.negotiationFailure.Load(),
		LastError:          o.lastErr.Load().(string),
	}
}
