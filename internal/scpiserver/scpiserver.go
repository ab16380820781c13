// Package scpiserver owns the SCPI TCP listener on port 5025, grounded
// on
// _examples/jangala-dev-devicecode-go/services/bridge/bridge.go's
// Service/runLink accept-and-serve shape and
// _examples/original_source/core/lib/scpi/scpi_server.c's scpi_main(),
// which accepts and services exactly one client at a time: a second
// accept only happens once the first session ends (spec.md §1 Non-goals,
// §4.6). The single active connection gets its own bus.Ring for inbound
// line reassembly, resolving the SCPI-fragmentation Open Question
// (buffer until '\n', bounded by capacity), and its own x/shmring.Ring
// to stage outbound response bytes for a dedicated writer goroutine;
// command dispatch waits on the socket only while WriteBufferSize bytes
// of responses are still unsent.
package scpiserver

import (
	"context"
	"net"

	"raptor/bus"
	"raptor/internal/scpi"
	"raptor/x/shmring"
)

// LineBufferSize bounds how much of a fragmented, unterminated command
// line a connection may accumulate before TakeLine can make progress.
const LineBufferSize = 1024

// WriteBufferSize bounds how many bytes of unsent response data a slow
// client may cause to accumulate before stageResponse waits for the
// writer to free space.
const WriteBufferSize = 4096

// Logger receives the server's diagnostic lines.
type Logger interface {
	Logf(format string, args ...any)
}

// Server accepts SCPI client connections one at a time and feeds each
// one through the single scpi.Pipeline given to New.
type Server struct {
	addr     string
	pipeline *scpi.Pipeline
	log      Logger
}

// New constructs a Server bound to addr (e.g. ":5025"), dispatching
// through pipeline.
func New(addr string, pipeline *scpi.Pipeline, log Logger) *Server {
	return &Server{addr: addr, pipeline: pipeline, log: log}
}

// Run listens and serves connections until ctx is cancelled.
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
		// Serve this session to completion before accepting the next:
		// spec.md §4.6 is single-session serial processing, not a
		// multi-client service.
		s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	s.logf("scpi: client connected %s", conn.RemoteAddr())

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outRing := shmring.New(WriteBufferSize)
	go writePump(connCtx, conn, outRing)

	ring := bus.NewRing(LineBufferSize)
	readBuf := make([]byte, 256)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := conn.Read(readBuf)
		if n > 0 {
			ring.Feed(readBuf[:n])
			for {
				line, ok := ring.TakeLine()
				if !ok {
					break
				}
				resp := s.pipeline.HandleLine(line)
				if resp != "" {
					stageResponse(outRing, []byte(resp))
				}
			}
		}
		if err != nil {
			s.logf("scpi: client disconnected %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// stageResponse copies resp into outRing, draining as it goes if the
// ring is momentarily full rather than dropping a partial response.
func stageResponse(r *shmring.Ring, resp []byte) {
	for len(resp) > 0 {
		n := r.TryWriteFrom(resp)
		if n == 0 {
			<-r.Writable()
			continue
		}
		resp = resp[n:]
	}
}

// writePump is the sole consumer of outRing, draining staged response
// bytes to the socket as they arrive until ctx is cancelled.
func writePump(ctx context.Context, conn net.Conn, r *shmring.Ring) {
	buf := make([]byte, 512)
	for {
		n := r.TryReadInto(buf)
		if n > 0 {
			if _, err := conn.Write(buf[:n]); err != nil {
				return
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-r.Readable():
		}
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Logf(format, args...)
	}
}
