package node

import (
	"os"

	"github.com/DFriend01/dht-go/dht/ring"
	"github.com/DFriend01/dht-go/dht/wire"
)

// operation mirrors the teacher's packet interface in p2p/discover/udp.go
// (handle(...) error / name() string), generalized from 8 Kademlia
// packet types to this protocol's 9 key/value operations.
type operation interface {
	name() string
	handle(n *Node, req wire.RequestPayload) wire.ReplyPayload
}

var operationTable = map[wire.Operation]operation{
	wire.OpPut:                           putOp{},
	wire.OpGet:                           getOp{},
	wire.OpDelete:                        deleteOp{},
	wire.OpWipe:                          wipeOp{},
	wire.OpPing:                          pingOp{},
	wire.OpShutdown:                      shutdownOp{},
	wire.OpGetPid:                        getPidOp{},
	wire.OpGetNearestPrecedingNodeToKey:  getNearestPrecedingNodeToKeyOp{},
	wire.OpGetSuccessor:                  getSuccessorOp{},
}

type putOp struct{}

func (putOp) name() string { return "put" }
func (putOp) handle(n *Node, req wire.RequestPayload) wire.ReplyPayload {
	status := n.store.Put(req.Key, req.Value)
	return wire.ReplyPayload{Status: status}
}

type getOp struct{}

func (getOp) name() string { return "get" }
func (getOp) handle(n *Node, req wire.RequestPayload) wire.ReplyPayload {
	value, status := n.store.Get(req.Key)
	reply := wire.ReplyPayload{Status: status}
	if status == wire.StatusSuccess {
		reply.Value = value
	}
	return reply
}

type deleteOp struct{}

func (deleteOp) name() string { return "delete" }
func (deleteOp) handle(n *Node, req wire.RequestPayload) wire.ReplyPayload {
	value, status := n.store.Delete(req.Key)
	reply := wire.ReplyPayload{Status: status}
	if status == wire.StatusSuccess {
		reply.Value = value
	}
	return reply
}

type wipeOp struct{}

func (wipeOp) name() string { return "wipe" }
func (wipeOp) handle(n *Node, _ wire.RequestPayload) wire.ReplyPayload {
	n.store.Wipe()
	return wire.ReplyPayload{Status: wire.StatusSuccess}
}

type pingOp struct{}

func (pingOp) name() string { return "ping" }
func (pingOp) handle(n *Node, _ wire.RequestPayload) wire.ReplyPayload {
	return wire.ReplyPayload{Status: wire.StatusSuccess}
}

type getPidOp struct{}

func (getPidOp) name() string { return "getpid" }
func (getPidOp) handle(n *Node, _ wire.RequestPayload) wire.ReplyPayload {
	pid := uint32(os.Getpid())
	return wire.ReplyPayload{Status: wire.StatusSuccess, Pid: &pid}
}

type shutdownOp struct{}

func (shutdownOp) name() string { return "shutdown" }
func (shutdownOp) handle(n *Node, _ wire.RequestPayload) wire.ReplyPayload {
	n.running.Store(false)
	return wire.ReplyPayload{Status: wire.StatusSuccess}
}

type getSuccessorOp struct{}

func (getSuccessorOp) name() string { return "getsuccessor" }
func (getSuccessorOp) handle(n *Node, _ wire.RequestPayload) wire.ReplyPayload {
	succ := n.table.SuccessorOfSelf()
	info := wire.NodeInfo{NodePosition: uint32(succ.NodePosition), NodeAddress: succ.NodeAddr}
	return wire.ReplyPayload{Status: wire.StatusSuccess, NodeInfo: &info}
}

type getNearestPrecedingNodeToKeyOp struct{}

func (getNearestPrecedingNodeToKeyOp) name() string { return "getnearestprecedingnodetokey" }
func (getNearestPrecedingNodeToKeyOp) handle(n *Node, req wire.RequestPayload) wire.ReplyPayload {
	if req.Key == nil {
		return wire.ReplyPayload{Status: wire.StatusMissingKey}
	}
	keyPosition := ring.PositionOf(req.Key, n.table.M())
	finger, _, ok := n.table.NearestPrecedingFinger(keyPosition)
	if !ok {
		// The wire contract has no dedicated status for "no finger
		// strictly precedes this key"; reusing KeyNotFound is the
		// closest existing code and keeps the status set fixed.
		return wire.ReplyPayload{Status: wire.StatusKeyNotFound}
	}
	info := wire.NodeInfo{NodePosition: uint32(finger.NodePosition), NodeAddress: finger.NodeAddr}
	return wire.ReplyPayload{Status: wire.StatusSuccess, NodeInfo: &info}
}
