package cmdchannel

import (
	"context"
	"net"

	"raptor/internal/sysreg"
)

// Logger receives the server's diagnostic lines.
type Logger interface {
	Logf(format string, args ...any)
}

// Server accepts connections on the command channel port and services
// one request/response pair at a time per connection, the framing
// analogue of bridge.go's handleLink loop with the pub/sub routing
// stripped out (out of scope per spec.md §6's Non-goal on the detailed
// command schema).
type Server struct {
	addr string
	reg  *sysreg.File
	log  Logger
}

// New constructs a Server bound to addr (e.g. ":50051"), answering
// GetVersion from reg's FWVersion register.
func New(addr string, reg *sysreg.File, log Logger) *Server {
	return &Server{addr: addr, reg: reg, log: log}
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
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	rd := NewFrameReader(conn)
	wr := NewFrameWriter(conn)
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			return
		}
		if f.Type != FrameCommandRequest {
			continue
		}
		req, err := DecodeRequest(f.Payload)
		if err != nil {
			s.logf("cmdchannel: bad request: %v", err)
			continue
		}
		resp := s.handle(req)
		payload := EncodeResponse(resp)
		if err := wr.WriteFrame(Frame{Type: FrameCommandResponse, Payload: payload}); err != nil {
			return
		}
	}
}

func (s *Server) handle(req CommandRequest) CommandResponse {
	switch req.Variant {
	case VariantGetVersion:
		fw, err := s.reg.GetU32(sysreg.FWVersion)
		if err != nil {
			return CommandResponse{Status: StatusGenErr, Variant: req.Variant}
		}
		return CommandResponse{Status: StatusOK, Variant: VariantGetVersion, Version: fw}
	default:
		return CommandResponse{Status: StatusGenErr, Variant: req.Variant}
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Logf(format, args...)
	}
}
