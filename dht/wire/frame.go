// Package wire implements the datagram envelope this system speaks on
// the socket: length-delimited frames carrying an id, an application
// payload, and a checksum, serialized with the same tag-length-value
// scheme protobuf uses on the wire (field numbers id=1, payload=2,
// checksum=3) so the bytes this codec produces are interoperable with
// a generated UDPMessage descriptor, without requiring a protoc
// invocation to build this module.
package wire

import (
	"errors"
	"net"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrInvalidData is returned for any frame or payload that fails to
// parse, or whose checksum does not match — the two cases the spec
// requires to be indistinguishable to a caller.
var ErrInvalidData = errors.New("wire: invalid data")

const (
	fieldFrameID       protowire.Number = 1
	fieldFramePayload  protowire.Number = 2
	fieldFrameChecksum protowire.Number = 3
)

// Frame is the wire envelope exchanged between a client and a node, or
// between two nodes during routing.
type Frame struct {
	ID       []byte
	Payload  []byte
	Checksum uint64
}

// NewFrame builds a frame from an application payload, generating a
// fresh message id for senderIP/senderPort and computing the checksum
// over id‖payload.
func NewFrame(senderIP net.IP, senderPort uint16, payload []byte) (Frame, error) {
	id, err := NewMessageID(senderIP, senderPort)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		ID:       id,
		Payload:  payload,
		Checksum: Checksum(id, payload),
	}, nil
}

// Encode serializes f using the wire's tag-length-value scheme.
func (f Frame) Encode() []byte {
	b := make([]byte, 0, len(f.ID)+len(f.Payload)+24)
	b = protowire.AppendTag(b, fieldFrameID, protowire.BytesType)
	b = protowire.AppendBytes(b, f.ID)
	b = protowire.AppendTag(b, fieldFramePayload, protowire.BytesType)
	b = protowire.AppendBytes(b, f.Payload)
	b = protowire.AppendTag(b, fieldFrameChecksum, protowire.VarintType)
	b = protowire.AppendVarint(b, f.Checksum)
	return b
}

// Verify reports whether f's checksum matches id‖payload.
func (f Frame) Verify() bool {
	return f.Checksum == Checksum(f.ID, f.Payload)
}

// DecodeFrame parses a serialized frame. It does not verify the
// checksum; callers that need a validated frame should call
// DecodeAndVerifyFrame instead.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	var gotID, gotPayload, gotChecksum bool

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Frame{}, ErrInvalidData
		}
		b = b[n:]

		switch num {
		case fieldFrameID:
			if typ != protowire.BytesType {
				return Frame{}, ErrInvalidData
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Frame{}, ErrInvalidData
			}
			f.ID = append([]byte(nil), v...)
			b = b[n:]
			gotID = true

		case fieldFramePayload:
			if typ != protowire.BytesType {
				return Frame{}, ErrInvalidData
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Frame{}, ErrInvalidData
			}
			f.Payload = append([]byte(nil), v...)
			b = b[n:]
			gotPayload = true

		case fieldFrameChecksum:
			if typ != protowire.VarintType {
				return Frame{}, ErrInvalidData
			}
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Frame{}, ErrInvalidData
			}
			f.Checksum = v
			b = b[n:]
			gotChecksum = true

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Frame{}, ErrInvalidData
			}
			b = b[n:]
		}
	}

	if !gotID || !gotPayload || !gotChecksum {
		return Frame{}, ErrInvalidData
	}
	return f, nil
}

// DecodeAndVerifyFrame parses b and verifies its checksum, returning
// ErrInvalidData for either a malformed frame or a checksum mismatch.
func DecodeAndVerifyFrame(b []byte) (Frame, error) {
	f, err := DecodeFrame(b)
	if err != nil {
		return Frame{}, err
	}
	if !f.Verify() {
		return Frame{}, ErrInvalidData
	}
	return f, nil
}
