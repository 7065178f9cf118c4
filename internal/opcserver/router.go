// Package opcserver implements the TCP-facing half of the bridge:
// the Framer that parses OPC messages off a connection (spec.md §4.2),
// the Router that fans a parsed message out to the outputs it targets
// (spec.md §4.3), and the Acceptor that binds the listening socket and
// spawns a framer per connection (spec.md §4.1).
package opcserver

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bbulkow/OpenPixelControlSerial/internal/config"
	"github.com/bbulkow/OpenPixelControlSerial/internal/slot"
	"github.com/bbulkow/OpenPixelControlSerial/internal/stats"
)

// SetPixelCommand is the only OPC command the router acts on (spec.md
// §3: "Only command = 0x00 ... is acted on").
const SetPixelCommand = 0x00

// BroadcastChannel is the OPC channel value meaning "every output"
// (spec.md §3).
const BroadcastChannel = 0x00

// Output is one configured destination the router can publish into: its
// static configuration, its single-slot mailbox, and its counters. This
// is the router/worker-facing half of spec.md §3's OutputRuntime; the
// codec/serial half lives in internal/output.Worker.
type Output struct {
	Config config.OutputConfig
	Slot   *slot.Slot
	Stats  *stats.Output

	// publishMu serializes publishes from concurrent connections so the
	// slot sees one logical producer, matching the single-producer
	// assumption internal/slot.Publish documents (spec.md §5: "each slot
	// is owned by exactly one producer-site (the router)").
	publishMu sync.Mutex
}

// Router maps an inbound (channel, payload) to the set of Outputs it
// targets and publishes the relevant pixel subrange to each (spec.md
// §4.3). The router performs no pixel-format conversion and never
// blocks: Slot.Publish is wait-free.
type Router struct {
	outputs []*Output
	logger  *log.Logger
}

// NewRouter builds a Router over outputs.
func NewRouter(outputs []*Output, logger *log.Logger) *Router {
	return &Router{outputs: outputs, logger: logger}
}

// Route dispatches one parsed OPC message. Only command ==
// SetPixelCommand has any effect; other commands are counted as
// "unknown command, ignore" per spec.md §7 against every output the
// message's channel addresses, and otherwise dropped.
func (r *Router) Route(channel byte, command byte, payload []byte) {
	if command != SetPixelCommand {
		for _, out := range r.outputs {
			if r.targets(out, channel) {
				out.Stats.IncUnknownCommand()
			}
		}
		return
	}

	for _, out := range r.outputs {
		if !r.targets(out, channel) {
			continue
		}
		r.publishTo(out, payload)
	}
}

// targets reports whether channel addresses out: either out is
// configured for that exact channel, or channel is the broadcast
// channel (spec.md §3 "Channel 0 means broadcast to every output").
func (r *Router) targets(out *Output, channel byte) bool {
	if channel == BroadcastChannel {
		return true
	}
	return int(channel) == out.Config.OPCChannel
}

// publishTo slices payload for out and publishes it, or counts a
// short-payload skip (spec.md §4.3 step 2, §7).
func (r *Router) publishTo(out *Output, payload []byte) {
	start := out.Config.OPCOffset * 3
	end := start + out.Config.LEDCount*3
	if end > len(payload) {
		out.Stats.IncDroppedByShort()
		return
	}
	buf := make([]byte, end-start)
	copy(buf, payload[start:end])
	out.Stats.IncReceived()

	out.publishMu.Lock()
	before := out.Slot.Dropped()
	out.Slot.Publish(buf)
	if out.Slot.Dropped() > before {
		out.Stats.IncDroppedBySlot()
	}
	out.publishMu.Unlock()
}
