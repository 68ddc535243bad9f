package main

import (
	"fmt"
	"net"
	"time"

	"github.com/DFriend01/dht-go/dht/rpcchannel"
	"github.com/DFriend01/dht-go/dht/transport"
	"github.com/DFriend01/dht-go/dht/wire"
)

// sendRequest opens a fresh ephemeral channel, exchanges req with
// addr, and returns the decoded reply — the same one-shot pattern
// dhtnode's own outbound routing queries use (dht/node/dialer.go).
func sendRequest(addr string, req wire.RequestPayload) (wire.ReplyPayload, error) {
	dst, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return wire.ReplyPayload{}, err
	}

	t, err := transport.Listen(":0")
	if err != nil {
		return wire.ReplyPayload{}, err
	}
	defer t.Close()

	ch, err := rpcchannel.New(t)
	if err != nil {
		return wire.ReplyPayload{}, err
	}

	frame, _, err := ch.SendAndRecv(req.Encode(), dst)
	if err != nil {
		return wire.ReplyPayload{}, err
	}
	return wire.DecodeReplyPayload(frame.Payload)
}

// pingLatency measures one Ping round trip, for use by the status
// command. A transport error (including a timeout) is returned as is,
// and a non-Success status is returned as an error.
func pingLatency(addr string) (time.Duration, error) {
	start := time.Now()
	reply, err := sendRequest(addr, wire.RequestPayload{Operation: wire.OpPing})
	if err != nil {
		return 0, err
	}
	if reply.Status != wire.StatusSuccess {
		return 0, fmt.Errorf("unexpected status %s", reply.Status)
	}
	return time.Since(start), nil
}
