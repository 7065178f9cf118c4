// Package output implements the Serial Worker (spec.md §4.5): the
// per-output goroutine that owns one serial port for its lifetime, pulls
// pixel buffers from its Slot, and drives the pixel transform and
// protocol codec to produce the bytes written to the wire.
//
// Grounded on doismellburning-samoyed's src/kissserial.go, which runs
// exactly this shape — one goroutine per configured serial TNC that
// opens the port, loops reading/writing frames, and on any I/O error
// closes and reopens with a backoff — generalized here from "read KISS
// frames from the port" to "take pixel buffers from a Slot and write
// codec frames to the port", and from a fixed retry delay to the
// exponential backoff spec.md §4.5 calls for.
package output

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bbulkow/OpenPixelControlSerial/internal/codec"
	"github.com/bbulkow/OpenPixelControlSerial/internal/config"
	"github.com/bbulkow/OpenPixelControlSerial/internal/logging"
	"github.com/bbulkow/OpenPixelControlSerial/internal/pixel"
	"github.com/bbulkow/OpenPixelControlSerial/internal/serialport"
	"github.com/bbulkow/OpenPixelControlSerial/internal/slot"
	"github.com/bbulkow/OpenPixelControlSerial/internal/stats"
)

// PortOpener abstracts serialport.Open so tests can substitute a pty
// pair (via serialport.Open on a pty slave path) or a failing opener.
type PortOpener func(devicename string, baud int) (SerialPort, error)

// SerialPort is the subset of *serialport.Port the worker needs. Tests
// satisfy it with a *serialport.Port opened against a pty, or a fake
// that injects errors.
type SerialPort interface {
	Write([]byte) (int, error)
	ReadWithTimeout(buf []byte, timeout time.Duration) (int, error)
	Close() error
}

func defaultOpener(devicename string, baud int) (SerialPort, error) {
	return serialport.Open(devicename, baud)
}

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// Worker runs the lifecycle of one output's serial port (spec.md §4.5).
type Worker struct {
	cfg    config.OutputConfig
	slot   *slot.Slot
	stats  *stats.Output
	logger *log.Logger
	open   PortOpener

	probeTimeout  time.Duration
	switchSettle  time.Duration
	backoffJitter func(time.Duration) time.Duration
}

// New builds a Worker for cfg, taking buffers from s and recording
// counters into st.
func New(cfg config.OutputConfig, s *slot.Slot, st *stats.Output, logger *log.Logger) *Worker {
	return &Worker{
		cfg:          cfg,
		slot:         s,
		stats:        st,
		logger:       logger,
		open:         defaultOpener,
		probeTimeout: 200 * time.Millisecond,
		switchSettle: 200 * time.Millisecond,
		backoffJitter: func(d time.Duration) time.Duration {
			return d/2 + time.Duration(rand.Int63n(int64(d/2+1)))
		},
	}
}

// Run executes the Open/Loop/Close lifecycle until ctx is canceled or
// the slot is closed. It never returns an error; all failures are
// logged and absorbed per spec.md §7 ("Port open / write").
func (w *Worker) Run(ctx context.Context) {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		port, err := w.openForRun(ctx)
		if err != nil {
			w.stats.RecordError(err)
			w.logger.Error("output: open failed, retrying", "port", w.cfg.Port, "err", err, "backoff", backoff)
			if !sleepOrDone(ctx, w.backoffJitter(backoff)) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minBackoff
		w.stats.RecordError(nil)

		if !w.loop(ctx, port) {
			_ = port.Close()
			return
		}
		_ = port.Close()
		// loop returned true only on a write error; spec.md §4.5 step 2
		// says return to Open immediately, no backoff for a mid-run
		// write failure distinct from an open failure.
	}
}

// openForRun opens the port, running the WLED negotiation handshake
// first when the output's protocol calls for it.
func (w *Worker) openForRun(ctx context.Context) (SerialPort, error) {
	if w.cfg.Protocol != config.ProtocolWLED {
		return w.open(w.cfg.Port, w.cfg.BaudRate)
	}
	return w.openWLED(ctx)
}

// loop is the take/transform/encode/write cycle (spec.md §4.5 step 2).
// It returns false when the slot closed (shutdown) or ctx was canceled,
// and true when a write error means the caller should reopen the port.
func (w *Worker) loop(ctx context.Context, port SerialPort) bool {
	for {
		buf, ok := w.slot.Take()
		if !ok {
			return false
		}
		if ctx.Err() != nil {
			return false
		}

		frame, err := w.encode(buf)
		if err != nil {
			// A buffer that fails to encode (e.g. bad pixel_format) can
			// never succeed; log and drop it without restarting the port.
			w.logger.Error("output: encode failed, dropping frame", "port", w.cfg.Port, "err", err)
			continue
		}

		start := time.Now()
		_, err = port.Write(frame)
		if err != nil {
			w.stats.RecordError(err)
			w.logger.Error("output: write failed, reopening port", "port", w.cfg.Port, "err", err)
			return true
		}
		w.stats.RecordWrite(time.Since(start))
		kv := append([]interface{}{"port", w.cfg.Port, "bytes", len(frame)}, logging.Transmitted.Fields()...)
		w.logger.Debug("output: frame written", kv...)
	}
}

// encode applies the pixel transform then the protocol codec for this
// output's configuration (spec.md §4.6/§4.7).
func (w *Worker) encode(buf []byte) ([]byte, error) {
	format := pixel.Format(w.cfg.PixelFormat)
	transformed, err := pixel.Transform(buf, format)
	if err != nil {
		return nil, err
	}
	switch w.cfg.Protocol {
	case config.ProtocolAWA:
		return codec.EncodeAWA(w.cfg.LEDCount, transformed)
	case config.ProtocolAdaLight, config.ProtocolWLED:
		return codec.EncodeAdaLight(w.cfg.LEDCount, transformed)
	default:
		return nil, fmt.Errorf("output: unknown protocol %q", w.cfg.Protocol)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// sleepOrDone waits for d, returning false early if ctx is canceled.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
