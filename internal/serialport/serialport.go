// Package serialport wraps github.com/pkg/term for opening and driving
// the serial device attached to one LED controller.
//
// Grounded directly on doismellburning-samoyed's src/serial_port.go,
// which wraps the same library (github.com/pkg/term) to hide OS
// differences for its KISS TNC serial interface. That file's
// serial_port_open/_write/_get1/_close quartet maps onto Open/Write/
// ReadWithTimeout/Close here; the read timeout is new, needed for
// WLED's probe-response wait (spec.md §4.8) which samoyed's KISS byte
// reader never needed (it blocks forever on a dedicated thread).
package serialport

import (
	"errors"
	"fmt"
	"time"

	"github.com/pkg/term"
)

// ErrTimeout is returned by ReadWithTimeout when no data arrives in
// time.
var ErrTimeout = errors.New("serialport: read timed out")

// Port is one open serial device.
type Port struct {
	t    *term.Term
	baud int
}

// Open opens devicename and configures it for baud bits-per-second, raw
// mode, 8N1 — the framing every AdaLight/AWA/WLED receiver expects.
func Open(devicename string, baud int) (*Port, error) {
	t, err := term.Open(devicename, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s at %d baud: %w", devicename, baud, err)
	}
	return &Port{t: t, baud: baud}, nil
}

// Baud returns the baud rate the port was opened with.
func (p *Port) Baud() int { return p.baud }

// Write sends data to the controller. Per spec.md §5 there is no
// application-level write timeout; a hung port surfaces only through
// whatever error the OS eventually returns.
func (p *Port) Write(data []byte) (int, error) {
	n, err := p.t.Write(data)
	if err != nil {
		return n, fmt.Errorf("serialport: write: %w", err)
	}
	return n, nil
}

// Close releases the underlying device.
func (p *Port) Close() error {
	if p == nil || p.t == nil {
		return nil
	}
	return p.t.Close()
}

// ReadWithTimeout reads into buf, returning ErrTimeout if no data
// arrives within timeout. Used only by the WLED Probing/Switching
// states (spec.md §4.8), which need a bounded wait for a handshake
// response; the hot data path (§4.5 worker loop) never reads.
func (p *Port) ReadWithTimeout(buf []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := p.t.Read(buf)
		done <- result{n, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return r.n, fmt.Errorf("serialport: read: %w", r.err)
		}
		return r.n, nil
	case <-time.After(timeout):
		return 0, ErrTimeout
	}
}
