package node

import (
	"net"

	"github.com/DFriend01/dht-go/dht/chord"
	"github.com/DFriend01/dht-go/dht/rpcchannel"
	"github.com/DFriend01/dht-go/dht/transport"
	"github.com/DFriend01/dht-go/dht/wire"
)

// rpcDialer implements chord.Dialer over the real network, opening a
// fresh ephemeral socket per outbound routing query — spec.md §4.E:
// "each outbound query uses a fresh ephemeral request/reply channel on
// a randomly assigned local port."
type rpcDialer struct{}

func (rpcDialer) GetSuccessor(addr string) (chord.NodeInfo, wire.Status, error) {
	return dial(addr, wire.RequestPayload{Operation: wire.OpGetSuccessor})
}

func (rpcDialer) GetNearestPrecedingNodeToKey(addr string, key []byte) (chord.NodeInfo, wire.Status, error) {
	return dial(addr, wire.RequestPayload{Operation: wire.OpGetNearestPrecedingNodeToKey, Key: key})
}

func dial(addr string, req wire.RequestPayload) (chord.NodeInfo, wire.Status, error) {
	dst, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return chord.NodeInfo{}, 0, err
	}

	t, err := transport.Listen(":0")
	if err != nil {
		return chord.NodeInfo{}, 0, err
	}
	defer t.Close()

	ch, err := rpcchannel.New(t)
	if err != nil {
		return chord.NodeInfo{}, 0, err
	}

	frame, _, err := ch.SendAndRecv(req.Encode(), dst)
	if err != nil {
		return chord.NodeInfo{}, 0, err
	}

	reply, err := wire.DecodeReplyPayload(frame.Payload)
	if err != nil {
		return chord.NodeInfo{}, 0, err
	}
	if reply.NodeInfo == nil {
		return chord.NodeInfo{}, reply.Status, nil
	}
	return chord.NodeInfo{
		Position: uint64(reply.NodeInfo.NodePosition),
		Addr:     reply.NodeInfo.NodeAddress,
	}, reply.Status, nil
}
