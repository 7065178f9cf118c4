// Package slot implements the single-element latest-wins mailbox that
// hands pixel buffers from the router to a serial worker (spec.md §4.4).
//
// The teacher's closest analog is samoyed's kissport_status_s.kf array
// plus its per-client channel read loop (kissnet.go/kissserial.go),
// which is an unbounded byte-at-a-time accumulator, not a drop-stale
// mailbox — that file has no skip-ahead concept because KISS framing
// has no real-time "latest wins" requirement. The skip-ahead shape here
// instead follows the general Go idiom of a capacity-1 channel that is
// drained-then-refilled on publish, which is the standard way to
// implement "only the most recent value matters" handoff without a
// separate lock.
package slot

import "sync/atomic"

// Slot holds at most one pending buffer. publish never blocks; a
// buffer that arrives while one is already pending replaces it and
// increments the dropped counter.
type Slot struct {
	ch      chan entry
	closed  chan struct{}
	dropped atomic.Uint64
	seq     atomic.Uint64
}

type entry struct {
	buf []byte
	seq uint64
}

// New returns an empty, open Slot.
func New() *Slot {
	return &Slot{
		ch:     make(chan entry, 1),
		closed: make(chan struct{}),
	}
}

// Publish stores buf, replacing and dropping any buffer already
// pending. It assumes a single producer at a time (concurrent callers
// must serialize, as the router does per output); under that
// assumption it never blocks and never fails due to congestion — only
// Close causes future publishes to be silently discarded.
func (s *Slot) Publish(buf []byte) {
	select {
	case <-s.closed:
		return
	default:
	}

	seq := s.seq.Add(1)
	next := entry{buf: buf, seq: seq}

	select {
	case s.ch <- next:
		return
	default:
	}

	// A buffer was already pending. Drop it (a concurrent Take may have
	// already claimed it, in which case the channel is simply empty
	// again and this is a no-op) and install ours in its place.
	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
	}

	select {
	case s.ch <- next:
	case <-s.closed:
	}
}

// Take blocks until a buffer is available or the slot is closed, in
// which case ok is false. Take never observes a sequence number lower
// than one it has already returned, since Publish only ever replaces
// the channel's single slot, never reorders it.
func (s *Slot) Take() (buf []byte, ok bool) {
	select {
	case <-s.closed:
		return nil, false
	default:
	}

	select {
	case e := <-s.ch:
		return e.buf, true
	case <-s.closed:
		return nil, false
	}
}

// TryTake returns immediately: ok is false if no buffer is pending
// rather than blocking for one. Used by tests that need to assert
// "nothing was published" without racing a blocking Take against a
// timeout.
func (s *Slot) TryTake() (buf []byte, ok bool) {
	select {
	case e := <-s.ch:
		return e.buf, true
	default:
		return nil, false
	}
}

// Close causes all blocked and future Take calls to return ok=false.
// Safe to call more than once.
func (s *Slot) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}

// Dropped returns the number of buffers discarded because a newer one
// replaced them before a Take observed them.
func (s *Slot) Dropped() uint64 {
	return s.dropped.Load()
}
