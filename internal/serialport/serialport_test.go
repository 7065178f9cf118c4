package serialport

import (
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestPort opens a real pseudo-terminal pair and a Port attached to
// the slave side, standing in for a USB-serial LED controller the way
// samoyed uses github.com/pkg/term against a pty for its own virtual
// KISS TNC interface in tests.
func openTestPort(t *testing.T) (master *os.File, port *Port) {
	t.Helper()
	m, s, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	p, err := Open(s.Name(), 115200)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	_ = s.Close() // Port now owns its own fd on the slave path.

	return m, p
}

func TestPortWriteIsObservedOnMaster(t *testing.T) {
	master, port := openTestPort(t)
	want := []byte("Ada\x00\x00\x55")

	n, err := port.Write(want)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)

	buf := make([]byte, len(want))
	got := 0
	deadline := time.Now().Add(2 * time.Second)
	for got < len(buf) && time.Now().Before(deadline) {
		n, err := master.Read(buf[got:])
		require.NoError(t, err)
		got += n
	}
	assert.Equal(t, want, buf[:got])
}

func TestReadWithTimeoutExpires(t *testing.T) {
	_, port := openTestPort(t)

	buf := make([]byte, 16)
	_, err := port.ReadWithTimeout(buf, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestReadWithTimeoutReceivesData(t *testing.T) {
	master, port := openTestPort(t)

	go func() {
		_, _ = master.Write([]byte(`{"v":true}` + "\n"))
	}()

	buf := make([]byte, 64)
	n, err := port.ReadWithTimeout(buf, 2*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"v":true`)
}
