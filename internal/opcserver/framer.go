package opcserver

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/charmbracelet/log"

	"github.com/bbulkow/OpenPixelControlSerial/internal/logging"
)

// headerLen is the fixed 4-byte OPC message header: channel, command,
// length_hi, length_lo (spec.md §6).
const headerLen = 4

// serveConn is the per-connection Framer (spec.md §4.2): it accumulates
// bytes from conn, extracts complete OPC messages, and hands each to
// router.Route. It returns when the peer closes or a read error occurs;
// callers treat that as "that connection only" per spec.md §7
// ("Connection" error kind).
//
// Grounded on doismellburning-samoyed's kissnet.go per-client read loop,
// which likewise maintains one accumulator per accepted connection and
// is torn down independently of every other client on I/O error; the
// length-prefixed extraction here replaces KISS's FEND-delimited escape
// scanning because OPC framing cannot be malformed by construction
// (spec.md §4.2).
func serveConn(conn net.Conn, router *Router, logger *log.Logger) {
	defer conn.Close()
	r := bufio.NewReaderSize(conn, 64*1024)
	header := make([]byte, headerLen)

	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				logger.Error("opcserver: connection read error", "remote", conn.RemoteAddr(), "err", err)
			}
			return
		}

		channel := header[0]
		command := header[1]
		length := binary.BigEndian.Uint16(header[2:4])

		payload := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(r, payload); err != nil {
				logger.Error("opcserver: connection read error", "remote", conn.RemoteAddr(), "err", err)
				return
			}
		}

		kv := append([]interface{}{"remote", conn.RemoteAddr(), "channel", channel, "len", length}, logging.Received.Fields()...)
		logger.Debug("opcserver: frame received", kv...)
		router.Route(channel, command, payload)
	}
}
