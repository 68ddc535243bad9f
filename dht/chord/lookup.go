package chord

import (
	"github.com/DFriend01/dht-go/dht/ring"
	"github.com/DFriend01/dht-go/dht/wire"
)

// Dialer issues the two outbound routing RPCs a lookup needs against a
// peer by address. The node runtime implements this over an ephemeral
// rpcchannel.Channel per call (spec.md §4.E: "each outbound query uses
// a fresh ephemeral request/reply channel on a randomly assigned local
// port"); chord stays free of any transport import so it can be tested
// without a socket.
type Dialer interface {
	GetSuccessor(addr string) (NodeInfo, wire.Status, error)
	GetNearestPrecedingNodeToKey(addr string, key []byte) (NodeInfo, wire.Status, error)
}

// FindSuccessorOfKey resolves the node responsible for key, following
// spec.md §4.E steps 1-5 exactly: a direct-ownership check against
// this node's own successor, then a first hop to the locally-known
// nearest preceding finger, then iterative GetNearestPrecedingNodeToKey
// hops bounded by m total, falling back to further local fingers if a
// hop replies with anything other than Success rather than trusting a
// misbehaving peer's silence as the final word.
func (t *Table) FindSuccessorOfKey(key []byte, dial Dialer) (NodeInfo, error) {
	keyPosition := ring.PositionOf(key, t.m)
	return t.findSuccessorOfPosition(keyPosition, key, dial)
}

func (t *Table) findSuccessorOfPosition(keyPosition uint64, key []byte, dial Dialer) (NodeInfo, error) {
	if cached, ok := t.cachedLookup(keyPosition); ok {
		return cached, nil
	}

	selfSucc := t.SuccessorOfSelf()
	if ring.InWraparoundRange(t.selfPosition, selfSucc.NodePosition, keyPosition, t.modulus, false, true) {
		info := NodeInfo{Position: selfSucc.NodePosition, Addr: selfSucc.NodeAddr}
		t.cacheLookup(keyPosition, info)
		return info, nil
	}

	nearest, nearestIdx, ok := t.NearestPrecedingFinger(keyPosition)
	if !ok {
		return NodeInfo{}, ErrNotFound
	}

	// Step 3: ask the first hop directly for its own successor.
	if succ, status, err := dial.GetSuccessor(nearest.NodeAddr); err == nil && status == wire.StatusSuccess {
		if ring.InWraparoundRange(nearest.NodePosition, succ.Position, keyPosition, t.modulus, false, true) {
			t.cacheLookup(keyPosition, succ)
			return succ, nil
		}
	}

	// Step 4-5: iterate GetNearestPrecedingNodeToKey against the
	// current hop, bounded to m total hops.
	currentAddr := nearest.NodeAddr
	for hop := 0; hop < int(t.m); hop++ {
		candidate, status, err := dial.GetNearestPrecedingNodeToKey(currentAddr, key)
		if err != nil || status != wire.StatusSuccess {
			fallback, fallbackIdx, ok := t.nearestPrecedingFingerBelow(keyPosition, nearestIdx-1)
			if !ok {
				return NodeInfo{}, ErrNotFound
			}
			nearestIdx = fallbackIdx
			// As on the first hop, ask the fallback finger for its own
			// successor before iterating from it.
			if succ, status, err := dial.GetSuccessor(fallback.NodeAddr); err == nil && status == wire.StatusSuccess {
				if ring.InWraparoundRange(fallback.NodePosition, succ.Position, keyPosition, t.modulus, false, true) {
					t.cacheLookup(keyPosition, succ)
					return succ, nil
				}
			}
			currentAddr = fallback.NodeAddr
			continue
		}

		succ, status, err := dial.GetSuccessor(candidate.Addr)
		if err == nil && status == wire.StatusSuccess {
			if ring.InWraparoundRange(candidate.Position, succ.Position, keyPosition, t.modulus, false, true) {
				t.cacheLookup(keyPosition, succ)
				return succ, nil
			}
		}
		currentAddr = candidate.Addr
	}

	return NodeInfo{}, ErrNotFound
}
