package cmdchannel

import (
	"context"
	"net"
	"testing"
	"time"

	"raptor/internal/sysreg"
)

func TestServerAnswersGetVersion(t *testing.T) {
	reg := sysreg.New()
	if err := reg.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	srv := New(addr, reg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	wr := NewFrameWriter(conn)
	rd := NewFrameReader(conn)
	req := EncodeRequest(CommandRequest{Variant: VariantGetVersion})
	if err := wr.WriteFrame(Frame{Type: FrameCommandRequest, Payload: req}); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := rd.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Type != FrameCommandResponse {
		t.Fatalf("expected response frame, got type %v", f.Type)
	}
	resp, err := DecodeResponse(f.Payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusOK {
		t.Fatalf("expected StatusOK, got %v", resp.Status)
	}
	wantFW, _ := reg.GetU32(sysreg.FWVersion)
	if resp.Version != wantFW {
		t.Fatalf("expected version %d, got %d", wantFW, resp.Version)
	}
}

func TestServerRejectsUnknownVariant(t *testing.T) {
	reg := sysreg.New()
	reg.Init()
	ln, _ := net.Listen("tcp", "127.0.0.1:0")
	addr := ln.Addr().String()
	ln.Close()

	srv := New(addr, reg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	wr := NewFrameWriter(conn)
	rd := NewFrameReader(conn)
	req := EncodeRequest(CommandRequest{Variant: VariantUnspecified})
	wr.WriteFrame(Frame{Type: FrameCommandRequest, Payload: req})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := rd.ReadFrame()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	resp, _ := DecodeResponse(f.Payload)
	if resp.Status != StatusGenErr {
		t.Fatalf("expected StatusGenErr for an unspecified variant, got %v", resp.Status)
	}
}
