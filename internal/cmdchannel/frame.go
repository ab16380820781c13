// Package cmdchannel implements the secondary binary command channel,
// grounded on
// _examples/jangala-dev-devicecode-go/services/bridge/bridge.go's
// 3-byte {type, lenHi, lenLo} Frame header and framedReader/
// framedWriter pair.
package cmdchannel

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameType tags a Frame's payload kind.
type FrameType byte

const (
	FrameCommandRequest  FrameType = 0x01
	FrameCommandResponse FrameType = 0x02
)

// Frame is a length-prefixed binary unit: 1 byte type, 2 bytes
// big-endian length, then payload — identical layout to bridge.go's
// Frame/framedReader/framedWriter.
type Frame struct {
	Type    FrameType
	Payload []byte
}

type FrameReader struct{ r io.Reader }

func NewFrameReader(r io.Reader) *FrameReader { return &FrameReader{r: r} }

func (fr *FrameReader) ReadFrame() (Frame, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return Frame{}, err
	}
	typ := FrameType(hdr[0])
	n := int(binary.BigEndian.Uint16(hdr[1:3]))
	var buf []byte
	if n > 0 {
		buf = make([]byte, n)
		if _, err := io.ReadFull(fr.r, buf); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: typ, Payload: buf}, nil
}

type FrameWriter struct{ w io.Writer }

func NewFrameWriter(w io.Writer) *FrameWriter { return &FrameWriter{w: w} }

func (fw *FrameWriter) WriteFrame(f Frame) error {
	if len(f.Payload) > 0xFFFF {
		return fmt.Errorf("cmdchannel: frame too large: %d bytes", len(f.Payload))
	}
	var hdr [3]byte
	hdr[0] = byte(f.Type)
	binary.BigEndian.PutUint16(hdr[1:3], uint16(len(f.Payload)))
	if _, err := fw.w.Write(hdr[:]); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		_, err := fw.w.Write(f.Payload)
		return err
	}
	return nil
}
