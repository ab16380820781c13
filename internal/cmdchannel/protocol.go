package cmdchannel

import (
	"encoding/binary"
	"errors"
)

// Status mirrors the {UNSPECIFIED, OK, GEN_ERR} enum spec.md §6 calls
// for on the binary command channel.
type Status byte

const (
	StatusUnspecified Status = iota
	StatusOK
	StatusGenErr
)

// Variant tags which command payload a CommandRequest/CommandResponse
// carries. GetVersion is the one reference variant this core
// implements end to end; the full command schema is externally owned
// (Non-goal per spec.md §6).
type Variant byte

const (
	VariantUnspecified Variant = iota
	VariantGetVersion
)

// CommandRequest is the binary-channel request envelope.
type CommandRequest struct {
	Variant Variant
}

// CommandResponse is the binary-channel response envelope.
type CommandResponse struct {
	Status  Status
	Variant Variant
	// Version carries the GetVersion response payload: major, minor,
	// patch and revision packed the same way sysreg.PackSemver does for
	// the HWVersion/FWVersion registers.
	Version uint32
}

var errShortPayload = errors.New("cmdchannel: payload too short")

// EncodeRequest serializes a CommandRequest into a Frame payload.
func EncodeRequest(req CommandRequest) []byte {
	return []byte{byte(req.Variant)}
}

// DecodeRequest parses a Frame payload into a CommandRequest.
func DecodeRequest(payload []byte) (CommandRequest, error) {
	if len(payload) < 1 {
		return CommandRequest{}, errShortPayload
	}
	return CommandRequest{Variant: Variant(payload[0])}, nil
}

// EncodeResponse serializes a CommandResponse into a Frame payload:
// [status][variant][version(4 BE)].
func EncodeResponse(resp CommandResponse) []byte {
	buf := make([]byte, 6)
	buf[0] = byte(resp.Status)
	buf[1] = byte(resp.Variant)
	binary.BigEndian.PutUint32(buf[2:6], resp.Version)
	return buf
}

// DecodeResponse parses a Frame payload into a CommandResponse.
func DecodeResponse(payload []byte) (CommandResponse, error) {
	if len(payload) < 6 {
		return CommandResponse{}, errShortPayload
	}
	return CommandResponse{
		Status:  Status(payload[0]),
		Variant: Variant(payload[1]),
		Version: binary.BigEndian.Uint32(payload[2:6]),
	}, nil
}
