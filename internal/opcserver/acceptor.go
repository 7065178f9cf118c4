package opcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// Acceptor binds the OPC listening socket and spawns a Framer per
// accepted connection (spec.md §4.1).
//
// Grounded on samoyed's kissnet.go connect_listen_thread, which binds
// with net.Listen and sets SO_REUSEADDR on the listener's raw fd so a
// restarted process can rebind immediately; this uses
// golang.org/x/sys/unix's typed constant instead of the raw syscall
// package samoyed reaches for, and a net.ListenConfig.Control hook
// (applied before bind, not after, avoiding the TOCTOU samoyed's
// post-Listen SetsockoptInt has) instead of spawning one thread per
// potential client slot.
type Acceptor struct {
	router *Router
	logger *log.Logger
}

// NewAcceptor builds an Acceptor that routes accepted connections'
// messages into router.
func NewAcceptor(router *Router, logger *log.Logger) *Acceptor {
	return &Acceptor{router: router, logger: logger}
}

// ListenAndServe binds addr (host:port) and accepts connections until
// ctx is canceled, at which point it closes the listener and returns
// nil. A bind failure is returned immediately as the "Bind" error kind
// (spec.md §7), fatal to the caller.
func (a *Acceptor) ListenAndServe(ctx context.Context, addr string) error {
	lc := net.ListenConfig{Control: setReuseAddr}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("opcserver: bind %s: %w", addr, err)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns = make(map[net.Conn]struct{})
	)
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		// Signal every live framer to terminate on its next read
		// (spec.md §5 shutdown sequence), rather than waiting for each
		// peer to close or time out on its own.
		mu.Lock()
		for c := range conns {
			_ = c.Close()
		}
		mu.Unlock()
	}()

	a.logger.Info("opcserver: listening", "addr", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			a.logger.Error("opcserver: accept failed", "err", err)
			continue
		}

		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, conn)
				mu.Unlock()
			}()
			serveConn(conn, a.router, a.logger)
		}()
	}
	wg.Wait()
	return nil
}

// setReuseAddr sets SO_REUSEADDR on the listening socket before bind,
// matching samoyed's rationale ("if you kill the application then try
// to run it again quickly the port number is unavailable for a while").
func setReuseAddr(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
