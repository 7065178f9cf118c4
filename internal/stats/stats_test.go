package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountersStartAtZero(t *testing.T) {
	o := New("/dev/ttyUSB0")
	s := o.Snapshot()
	assert.Equal(t, uint64(0), s.Received)
	assert.Equal(t, uint64(0), s.DroppedBySlot)
	assert.Equal(t, uint64(0), s.DroppedByShort)
	assert.Equal(t, uint64(0), s.Written)
	assert.Equal(t, "", s.LastError)
}

func TestCountersIncrement(t *testing.T) {
	o := New("/dev/ttyUSB0")
	o.IncReceived()
	o.IncReceived()
	o.IncDroppedBySlot()
	o.IncDroppedByShort()
	o.RecordWrite(2 * time.Millisecond)

	s := o.Snapshot()
	assert.Equal(t, uint64(2), s.Received)
	assert.Equal(t, uint64(1), s.DroppedBySlot)
	assert.Equal(t, uint64(1), s.DroppedByShort)
	assert.Equal(t, uint64(1), s.Written)
	assert.Equal(t, int64(2000), s.LastWriteMicros)
}

func TestRecordErrorThenClear(t *testing.T) {
	o := New("/dev/ttyUSB0")
	o.RecordError(errors.New("boom"))
	assert.Equal(t, "boom", o.Snapshot().LastError)
	o.RecordError(nil)
	assert.Equal(t, "", o.Snapshot().LastError)
}

func TestNewTickerRejectsBadPattern(t *testing.T) {
	_, err := NewTicker(nil, nil, 0, "%Q")
	assert.Error(t, err)
}

func TestNewTickerDefaultsInterval(t *testing.T) {
	tk, err := NewTicker(nil, nil, 0, "")
	assert.NoError(t, err)
	assert.Equal(t, DefaultInterval, tk.interval)
}
