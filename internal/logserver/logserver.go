// Package logserver publishes queued log entries to a TCP client on the
// logger port, grounded on
// _examples/original_source/src/common/logger.c's log_server_task:
// "a dedicated task owns a TCP listening socket ... On connect, it
// drains records from the queue and writes ... to the client until the
// write fails (client disconnect), then goes back to accepting"
// (spec.md §4.9) — one client at a time, not a broadcast fan-out — and
// the accept-loop shape of
// _examples/jangala-dev-devicecode-go/services/bridge/bridge.go.
package logserver

import (
	"context"
	"net"

	"raptor/internal/logbuf"
	"raptor/x/fmtx"
)

// HeaderFormat matches logger.c's LOG_HEADER_FMT exactly: a
// fixed-width millisecond tick and a 5-char level tag.
const HeaderFormat = "[ %9d %5s ]\t%s\n"

// Server streams a single logbuf.Queue to whichever TCP client is
// currently connected.
type Server struct {
	addr  string
	queue *logbuf.Queue
}

// New constructs a Server that will listen on addr (e.g. ":3000") and
// stream queue's entries to the connected client.
func New(addr string, queue *logbuf.Queue) *Server {
	return &Server{addr: addr, queue: queue}
}

// Run listens on s.addr, serving one client's log stream to completion
// before accepting the next, until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		s.serveClient(ctx, conn)
	}
}

// serveClient drains queued entries to conn until the write fails or
// ctx is cancelled, then closes conn so Run can accept the next client.
func (s *Server) serveClient(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.queue.Chan():
			line := fmtx.Sprintf(HeaderFormat, e.TickMS, e.Level.String(), e.Message)
			if _, err := conn.Write([]byte(line)); err != nil {
				return
			}
		}
	}
}
