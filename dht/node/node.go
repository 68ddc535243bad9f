// Package node implements the single-threaded dispatch loop that owns
// a node's store, reply cache, and finger table, and answers both
// client requests and peer routing queries over one UDP socket.
// Grounded on the teacher's own run loop in p2p/discover/udp.go
// (readLoop decoding into a packet and dispatching via .handle()) and
// on original_source/dht/src/server/data/mod.rs's run/get_reply/
// handle_message shape, whose response-cache-then-dispatch order this
// follows exactly.
package node

import (
	"net"
	"sync/atomic"

	"github.com/MOACChain/MoacLib/log"

	"github.com/DFriend01/dht-go/dht/cache"
	"github.com/DFriend01/dht-go/dht/chord"
	"github.com/DFriend01/dht-go/dht/rpcchannel"
	"github.com/DFriend01/dht-go/dht/store"
	"github.com/DFriend01/dht-go/dht/transport"
	"github.com/DFriend01/dht-go/dht/wire"
)

// ListenTimeout bounds how long a single Run iteration blocks waiting
// for an inbound frame before re-checking the running flag; it plays
// the same role as LISTENING_TIMEOUT in the wire contract.
const ListenTimeout = transport.DefaultListenTimeout

// Node owns every piece of per-process state: the data store, the
// reply cache, the finger table, and the bound request/reply channel.
// Nothing here is shared outside the dispatch loop.
type Node struct {
	channel *rpcchannel.Channel
	store   *store.Store
	cache   *cache.Cache
	table   *chord.Table
	dialer  chord.Dialer
	metrics *nodeMetrics
	running atomic.Bool
}

// Config collects the values needed to bring up a node.
type Config struct {
	ListenAddr   string
	SelfAddr     string
	Peers        []string
	SizingFactor uint
	MaxMemBytes  uint64
}

// New binds a UDP socket at cfg.ListenAddr, builds the finger table
// for cfg.SelfAddr/cfg.Peers, and returns a Node ready to Run.
func New(cfg Config) (*Node, error) {
	t, err := transport.Listen(cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	ch, err := rpcchannel.New(t)
	if err != nil {
		t.Close()
		return nil, err
	}

	table, err := chord.New(cfg.SelfAddr, cfg.Peers, cfg.SizingFactor)
	if err != nil {
		t.Close()
		return nil, err
	}

	cacheCapacity := uint64(float64(cfg.MaxMemBytes) * cache.DefaultCacheFraction)

	n := &Node{
		channel: ch,
		store:   store.New(cfg.MaxMemBytes),
		cache:   cache.New(cacheCapacity, cache.DefaultTTL),
		table:   table,
		dialer:  rpcDialer{},
		metrics: newNodeMetrics(),
	}
	n.running.Store(true)
	return n, nil
}

// Close releases the bound socket.
func (n *Node) Close() error { return n.channel.Close() }

// Stop flips the dispatch loop's running flag and closes the bound
// socket, unblocking a Listen call in progress. Unlike a Shutdown
// request, which is served from inside the dispatch loop's own
// goroutine, Stop is safe to call from elsewhere — a signal handler,
// say — and is what makes Run actually return instead of spinning on
// "use of closed network connection" once the socket goes away.
func (n *Node) Stop() {
	n.running.Store(false)
	n.channel.Close()
}

// LocalAddr returns the node's bound UDP address.
func (n *Node) LocalAddr() net.Addr { return n.channel.LocalAddr() }

// Table exposes the finger table to in-process callers such as tests;
// no wire operation returns it.
func (n *Node) Table() *chord.Table { return n.table }

// Metrics exposes a snapshot of the node's operational counters.
func (n *Node) Metrics() map[string]int64 { return n.metrics.Snapshot() }

// Run executes the dispatch loop until a Shutdown request is served or
// Stop is called, and then returns nil. Any other listen error (a
// timeout, a bad frame, a socket error) is logged at most and the loop
// continues. It never panics: handler errors are caught and mapped to
// InternalError, per spec.md §7's "no exceptions escape the dispatch
// loop" requirement.
func (n *Node) Run() error {
	for n.running.Load() {
		frame, from, err := n.channel.Listen(ListenTimeout)
		if err != nil {
			if err == transport.ErrTimedOut {
				continue
			}
			if !n.running.Load() {
				// Stop closed the socket out from under us; this is
				// the expected way an external shutdown unblocks
				// Listen, not a fault to retry past.
				return nil
			}
			log.Debugf("node: listen error, continuing: %v", err)
			continue
		}
		n.handleFrame(frame, from)
	}
	return nil
}

func (n *Node) handleFrame(frame wire.Frame, from *net.UDPAddr) {
	if cached, ok := n.cache.Get(frame.ID); ok {
		cachedFrame := wire.Frame{ID: frame.ID, Payload: cached, Checksum: wire.Checksum(frame.ID, cached)}
		if err := n.channel.SendFrame(cachedFrame, from); err != nil {
			log.Error("node: failed to resend cached reply", "err", err)
		}
		return
	}

	reply := n.dispatch(frame)
	replyBytes := reply.Encode()

	if reply.Status != wire.StatusOutOfMemory {
		n.cache.Put(frame.ID, replyBytes, n.store.Used(), n.store.MaxMemBytes())
	}
	n.metrics.recordUsage(n.store.Used(), n.cache.Used())

	if _, err := n.channel.SendReply(frame.ID, replyBytes, from); err != nil {
		log.Error("node: failed to send reply", "err", err)
	}
}

func (n *Node) dispatch(frame wire.Frame) (reply wire.ReplyPayload) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("node: recovered from panic in handler", "recover", r)
			reply = wire.ReplyPayload{Status: wire.StatusInternalError}
		}
	}()

	req, err := wire.DecodeRequestPayload(frame.Payload)
	if err != nil {
		return wire.ReplyPayload{Status: wire.StatusInternalError}
	}

	op, ok := operationTable[req.Operation]
	if !ok {
		return wire.ReplyPayload{Status: wire.StatusUndefinedOperation}
	}

	n.metrics.recordOp(req.Operation)
	result := op.handle(n, req)
	n.metrics.recordStatus(result.Status)
	return result
}

// FindSuccessorOfKey resolves the node responsible for key by routing
// through the finger table, dialing peers over fresh ephemeral sockets
// as needed.
func (n *Node) FindSuccessorOfKey(key []byte) (chord.NodeInfo, error) {
	return n.table.FindSuccessorOfKey(key, n.dialer)
}
