package opcserver

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbulkow/OpenPixelControlSerial/internal/config"
	"github.com/bbulkow/OpenPixelControlSerial/internal/slot"
	"github.com/bbulkow/OpenPixelControlSerial/internal/stats"
)

func newTestOutput(channel, offset, ledCount int) *Output {
	return &Output{
		Config: config.OutputConfig{OPCChannel: channel, OPCOffset: offset, LEDCount: ledCount},
		Slot:   slot.New(),
		Stats:  stats.New("test"),
	}
}

func testLogger() *log.Logger { return log.New(io.Discard) }

func TestRouteDeliversToMatchingChannel(t *testing.T) {
	o1 := newTestOutput(1, 0, 2)
	o2 := newTestOutput(2, 0, 2)
	r := NewRouter([]*Output{o1, o2}, testLogger())

	r.Route(1, SetPixelCommand, []byte{0xAA, 0xBB, 0xCC, 0x00, 0x00, 0x00})

	buf, ok := o1.Slot.Take()
	require.True(t, ok)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0x00, 0x00, 0x00}, buf)

	if _, ok := o2.Slot.TryTake(); ok {
		t.Fatal("o2 should not have received anything")
	}
}

func TestRouteChannelZeroIsBroadcast(t *testing.T) {
	// spec.md §8 scenario 4.
	o1 := newTestOutput(1, 0, 2)
	o2 := newTestOutput(0, 0, 2)
	r := NewRouter([]*Output{o1, o2}, testLogger())

	r.Route(1, SetPixelCommand, make([]byte, 6))
	r.Route(0, SetPixelCommand, []byte{1, 2, 3, 4, 5, 6})

	buf1, ok := o1.Slot.Take()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf1)
	assert.Equal(t, uint64(1), o1.Stats.Snapshot().DroppedBySlot)

	buf2, ok := o2.Slot.Take()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf2)
}

func TestRouteAppliesOffset(t *testing.T) {
	o := newTestOutput(1, 1, 1)
	r := NewRouter([]*Output{o}, testLogger())

	payload := []byte{0, 0, 0, 9, 8, 7}
	r.Route(1, SetPixelCommand, payload)

	buf, ok := o.Slot.Take()
	require.True(t, ok)
	assert.Equal(t, []byte{9, 8, 7}, buf)
}

func TestRouteSkipsShortPayload(t *testing.T) {
	o := newTestOutput(1, 0, 4)
	r := NewRouter([]*Output{o}, testLogger())

	r.Route(1, SetPixelCommand, make([]byte, 6)) // needs 12 bytes

	if _, ok := o.Slot.TryTake(); ok {
		t.Fatal("short payload should have been skipped")
	}
	assert.Equal(t, uint64(1), o.Stats.Snapshot().DroppedByShort)
	assert.Equal(t, uint64(0), o.Stats.Snapshot().Received)
}

func TestRouteIgnoresNonSetPixelCommand(t *testing.T) {
	o := newTestOutput(1, 0, 1)
	r := NewRouter([]*Output{o}, testLogger())

	r.Route(1, 0x01, []byte{1, 2, 3})

	if _, ok := o.Slot.TryTake(); ok {
		t.Fatal("non-zero command should be ignored")
	}
	assert.Equal(t, uint64(1), o.Stats.Snapshot().UnknownCommand)
}
