// Package rpcchannel layers frame construction and parsing on top of
// the raw datagram transport, so callers exchange application payloads
// rather than bytes. It plays the role the teacher's encodePacket /
// decodePacket pair plays around its own conn in p2p/discover/udp.go,
// generalized to this protocol's simpler synchronous request/reply
// shape (the teacher's protocol multiplexes many in-flight requests
// through a background loop; this one issues one blocking exchange at
// a time per spec.md's single-threaded dispatch model).
package rpcchannel

import (
	"fmt"
	"net"
	"time"

	"github.com/DFriend01/dht-go/dht/transport"
	"github.com/DFriend01/dht-go/dht/wire"
)

// Channel binds frame semantics to a UDPTransport.
type Channel struct {
	transport *transport.UDPTransport
	localIP   net.IP
	localPort uint16
}

// New wraps t, reading its own bound address for message-id generation.
func New(t *transport.UDPTransport) (*Channel, error) {
	addr, ok := t.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("rpcchannel: transport has no UDP local address")
	}
	return &Channel{transport: t, localIP: addr.IP, localPort: uint16(addr.Port)}, nil
}

// Close releases the underlying transport.
func (c *Channel) Close() error { return c.transport.Close() }

// LocalAddr returns the bound address of the underlying transport.
func (c *Channel) LocalAddr() net.Addr { return c.transport.LocalAddr() }

// SendAndRecv builds a fresh frame from payload, exchanges it with
// dst, and returns the checksum-verified reply frame and its sender.
func (c *Channel) SendAndRecv(payload []byte, dst *net.UDPAddr) (wire.Frame, *net.UDPAddr, error) {
	frame, err := wire.NewFrame(c.localIP, c.localPort, payload)
	if err != nil {
		return wire.Frame{}, nil, err
	}

	buf := make([]byte, transport.MaxBufferBytes)
	n, from, err := c.transport.SendAndRecv(frame.Encode(), dst, buf)
	if err != nil {
		return wire.Frame{}, nil, err
	}

	reply, err := wire.DecodeAndVerifyFrame(buf[:n])
	if err != nil {
		return wire.Frame{}, nil, err
	}
	return reply, from, nil
}

// Listen blocks up to timeout for the next inbound frame, returning it
// already checksum-verified.
func (c *Channel) Listen(timeout time.Duration) (wire.Frame, *net.UDPAddr, error) {
	buf := make([]byte, transport.MaxBufferBytes)
	n, from, err := c.transport.Listen(buf, timeout)
	if err != nil {
		return wire.Frame{}, nil, err
	}
	frame, err := wire.DecodeAndVerifyFrame(buf[:n])
	if err != nil {
		return wire.Frame{}, nil, err
	}
	return frame, from, nil
}

// SendFrame transmits a fully-built frame verbatim, used by the node
// runtime to resend a cached reply byte-for-byte under retransmission.
func (c *Channel) SendFrame(f wire.Frame, dst *net.UDPAddr) error {
	_, err := c.transport.Send(f.Encode(), dst)
	return err
}

// SendReply builds a reply frame carrying the same id as the request
// it answers — the id a retransmitted request arrives with again, and
// so the key the replying node's reply cache is keyed on — and
// transmits it to dst. SendAndRecv on the client side does not compare
// this id with the one it sent.
func (c *Channel) SendReply(requestID []byte, payload []byte, dst *net.UDPAddr) (wire.Frame, error) {
	f := wire.Frame{ID: requestID, Payload: payload, Checksum: wire.Checksum(requestID, payload)}
	_, err := c.transport.Send(f.Encode(), dst)
	return f, err
}
