// Package bridge wires the independently-testable components — Router,
// Acceptor, Serial Workers, Stats — into the single running process
// spec.md describes, and implements its startup/shutdown sequence
// (spec.md §5).
//
// Grounded on doismellburning-samoyed's src/direwolf.go main-assembly
// function, which builds one TNC/KISS/AGW runtime out of the same kind
// of independently-built pieces (audio devices, channels, network
// servers) from a single parsed config, then runs until a signal tells
// it to unwind them in reverse order.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bbulkow/OpenPixelControlSerial/internal/config"
	"github.com/bbulkow/OpenPixelControlSerial/internal/opcserver"
	"github.com/bbulkow/OpenPixelControlSerial/internal/output"
	"github.com/bbulkow/OpenPixelControlSerial/internal/slot"
	"github.com/bbulkow/OpenPixelControlSerial/internal/stats"
)

// ShutdownGrace bounds how long Shutdown waits for serial workers to
// notice their slot closed before it gives up on them (spec.md §5:
// "joins worker threads with a bounded grace period; remaining workers
// are abandoned only after unrecoverable timeout").
const ShutdownGrace = 3 * time.Second

// Server is one fully-wired running bridge: one Acceptor/Router over
// all configured outputs, one Serial Worker per output, and a Ticker if
// stats reporting is enabled.
type Server struct {
	cfg    *config.Config
	logger *log.Logger

	acceptor *opcserver.Acceptor
	outputs  []*opcserver.Output
	workers  []*output.Worker
	ticker   *stats.Ticker

	wg sync.WaitGroup
}

// New assembles a Server from cfg without starting anything.
func New(cfg *config.Config, logger *log.Logger, debug bool) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	for _, oc := range cfg.Outputs {
		sl := slot.New()
		st := stats.New(oc.Port)
		ro := &opcserver.Output{Config: oc, Slot: sl, Stats: st}
		s.outputs = append(s.outputs, ro)
		s.workers = append(s.workers, output.New(oc, sl, st, logger))
	}

	router := opcserver.NewRouter(s.outputs, logger)
	s.acceptor = opcserver.NewAcceptor(router, logger)

	if debug {
		statOutputs := make([]*stats.Output, len(s.outputs))
		for i, o := range s.outputs {
			statOutputs[i] = o.Stats
		}
		ticker, err := stats.NewTicker(logger, statOutputs, stats.DefaultInterval, "")
		if err != nil {
			return nil, err
		}
		s.ticker = ticker
	}

	return s, nil
}

// Run starts every serial worker and the ticker, then blocks serving
// OPC connections on listenAddr until ctx is canceled. It returns the
// Acceptor's error (nil on clean shutdown, the "Bind" error kind on
// failure to listen).
func (s *Server) Run(ctx context.Context, listenAddr string) error {
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	for _, w := range s.workers {
		w := w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			w.Run(workerCtx)
		}()
	}

	if s.ticker != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ticker.Run(workerCtx)
		}()
	}

	err := s.acceptor.ListenAndServe(ctx, listenAddr)

	// Acceptor returned (ctx canceled, or a bind/accept failure); tear
	// down the per-output slots and workers per spec.md §5's shutdown
	// sequence: close acceptor (already done inside ListenAndServe),
	// then signal each slot, then join workers with a bounded grace
	// period.
	for _, o := range s.outputs {
		o.Slot.Close()
	}
	cancelWorkers()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(ShutdownGrace):
		s.logger.Error("bridge: shutdown grace period elapsed, abandoning remaining workers")
	}

	return err
}
