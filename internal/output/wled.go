package output

import (
	"context"
	"errors"
	"time"

	"github.com/bbulkow/OpenPixelControlSerial/internal/codec"
)

var errUnreachableWLEDState = errors.New("output: unreachable wled negotiation state")

// openWLED drives the baud-negotiation state machine from spec.md §4.8,
// using internal/codec's pure decision logic (WLEDState, BaudCommandByte,
// NeedsBaudSwitch, LooksLikeWLEDResponse) for every decision and doing
// only the I/O itself here.
func (w *Worker) openWLED(ctx context.Context) (SerialPort, error) {
	state := codec.WLEDOpening
	var port SerialPort

	for {
		if ctx.Err() != nil {
			if port != nil {
				_ = port.Close()
			}
			return nil, ctx.Err()
		}

		switch state {
		case codec.WLEDOpening:
			p, err := w.open(w.cfg.Port, w.cfg.HandshakeBaudRate)
			if err != nil {
				return nil, err
			}
			port = p
			state = codec.WLEDProbing

		case codec.WLEDProbing:
			if _, err := port.Write([]byte(codec.WLEDProbeMessage)); err != nil {
				w.logger.Error("output: wled probe write failed, falling back to AdaLight", "port", w.cfg.Port, "err", err)
				w.stats.IncNegotiationFailure()
				state = codec.WLEDRunning
				continue
			}
			buf := make([]byte, 512)
			n, err := port.ReadWithTimeout(buf, w.probeTimeout)
			if err != nil || !codec.LooksLikeWLEDResponse(buf[:n]) {
				w.logger.Info("output: wled probe unconfirmed, assuming plain AdaLight", "port", w.cfg.Port)
				w.stats.IncNegotiationFailure()
				state = codec.WLEDRunning
				continue
			}
			state = codec.WLEDSwitching

		case codec.WLEDSwitching:
			if !codec.NeedsBaudSwitch(w.cfg.HandshakeBaudRate, w.cfg.BaudRate) {
				state = codec.WLEDRunning
				continue
			}
			cmd, ok := codec.BaudCommandByte(w.cfg.BaudRate)
			if !ok {
				w.logger.Error("output: wled target baud has no command byte, staying at handshake baud", "port", w.cfg.Port, "baud", w.cfg.BaudRate)
				w.stats.IncNegotiationFailure()
				state = codec.WLEDRunning
				continue
			}
			if _, err := port.Write([]byte{cmd}); err != nil {
				w.stats.IncNegotiationFailure()
				state = codec.WLEDError
				continue
			}
			buf := make([]byte, 128)
			_, _ = port.ReadWithTimeout(buf, w.switchSettle)
			if err := port.Close(); err != nil {
				w.stats.IncNegotiationFailure()
				state = codec.WLEDError
				continue
			}
			p, err := w.open(w.cfg.Port, w.cfg.BaudRate)
			if err != nil {
				return nil, err
			}
			port = p
			state = codec.WLEDRunning

		case codec.WLEDRunning:
			return port, nil

		case codec.WLEDError:
			if port != nil {
				_ = port.Close()
			}
			state = codec.WLEDOpening

		default:
			return nil, errUnreachableWLEDState
		}

		// yield briefly so a canceled context is observed promptly even
		// if the serial fake never blocks.
		select {
		case <-ctx.Done():
		case <-time.After(0):
		}
	}
}
