// Package chord builds and queries a node's finger table: the
// logarithmic routing structure used to locate the node responsible
// for a key without every node knowing every peer. Grounded on
// original_source/dht/src/server/data/finger_table.rs, whose
// `get_start_position`/`get_position_interval` helpers are the only
// pieces the original actually implements — successor and predecessor
// search there are left as TODOs, completed here per spec.md §9's
// construction-gap fix.
package chord

import (
	"errors"
	"sort"

	lru "github.com/hashicorp/golang-lru"

	"github.com/DFriend01/dht-go/dht/ring"
)

// ErrNotFound is returned when a lookup exhausts its search budget (or
// finds no finger strictly preceding the target) without locating an
// owning node.
var ErrNotFound = errors.New("chord: key owner not found")

// ErrTooManyPeers is returned at construction time when the peer count
// cannot be represented within the requested ring size.
var ErrTooManyPeers = errors.New("chord: |peers|+1 exceeds 2^m")

// defaultLookupCacheSize bounds the resolution cache added on top of
// the unchanged §4.E contract; finger-table membership never changes
// during a run (spec.md §3 excludes dynamic membership), so a modest
// fixed size comfortably covers any working set of distinct keys.
const defaultLookupCacheSize = 4096

// NodeInfo names a node by its ring position and dial address.
type NodeInfo struct {
	Position uint64
	Addr     string
}

// Finger is one entry of the table: the position this slot routes
// toward, and the node currently responsible for it.
type Finger struct {
	Start        uint64
	NodePosition uint64
	NodeAddr     string
}

// Table is a node's complete finger table plus the bounded lookup
// cache layered on top of it.
type Table struct {
	m            uint
	modulus      uint64
	selfPosition uint64
	selfAddr     string
	fingers      []Finger
	lookupCache  *lru.Cache
}

type peerPos struct {
	pos  uint64
	addr string
}

// New builds the finger table for selfAddr given the full peer set,
// using a ring of size 2^m.
func New(selfAddr string, peers []string, m uint) (*Table, error) {
	modulus := uint64(1) << m
	if uint64(len(peers))+1 > modulus {
		return nil, ErrTooManyPeers
	}

	selfPosition := ring.PositionOf([]byte(selfAddr), m)

	// start[i] is built by the §8.5 recurrence (self + 2^0 + ... +
	// 2^(i-1) = self + 2^i - 1), not the start[i] = (self + 2^i) mod
	// 2^m formula §3 and the original's calculate_start_position state.
	// The two disagree by one position; this one is kept because it is
	// what makes finger 1 land exactly on the first peer after self
	// (SuccessorOfSelf), which successor routing depends on.
	start := make([]uint64, m)
	start[0] = selfPosition % modulus
	for i := uint(1); i < m; i++ {
		start[i] = (start[i-1] + (uint64(1) << (i - 1))) % modulus
	}

	sorted := make([]peerPos, len(peers))
	for i, addr := range peers {
		sorted[i] = peerPos{pos: ring.PositionOf([]byte(addr), m), addr: addr}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].pos != sorted[j].pos {
			return sorted[i].pos < sorted[j].pos
		}
		return sorted[i].addr < sorted[j].addr
	})

	fingers := make([]Finger, m)
	for i := uint(0); i < m; i++ {
		fingers[i] = Finger{Start: start[i], NodePosition: selfPosition, NodeAddr: selfAddr}
	}

	// Two-cursor walk in position-relative-to-self coordinates, where
	// relStart[i] = 2^i - 1 (always < modulus, so it never itself
	// wraps) and a peer's relative position is (pos - self) mod
	// modulus. The peer array is logically doubled with rel+modulus
	// for a second pass, so a finger whose start sits past the last
	// peer's first-pass position still finds that peer on the wrap,
	// instead of silently defaulting to self (spec.md §9's fix for the
	// gap original_source/dht/src/server/data/finger_table.rs leaves
	// as a TODO).
	relOf := func(pos uint64) uint64 { return (pos - selfPosition + modulus) % modulus }

	type relPeer struct {
		rel  uint64
		pos  uint64
		addr string
	}
	relPeers := make([]relPeer, len(sorted))
	for i, p := range sorted {
		relPeers[i] = relPeer{rel: relOf(p.pos), pos: p.pos, addr: p.addr}
	}
	sort.Slice(relPeers, func(i, j int) bool {
		if relPeers[i].rel != relPeers[j].rel {
			return relPeers[i].rel < relPeers[j].rel
		}
		return relPeers[i].addr < relPeers[j].addr
	})

	doubled := make([]peerPos, 0, len(relPeers)*2)
	relDoubled := make([]uint64, 0, len(relPeers)*2)
	for pass := 0; pass < 2; pass++ {
		for _, rp := range relPeers {
			doubled = append(doubled, peerPos{pos: rp.pos, addr: rp.addr})
			relDoubled = append(relDoubled, rp.rel+uint64(pass)*modulus)
		}
	}

	relStart := make([]uint64, m)
	for i := uint(0); i < m; i++ {
		relStart[i] = (uint64(1) << i) - 1
	}

	f, p := uint(1), 0
	for f < m && p < len(relDoubled) {
		if relDoubled[p] >= relStart[f] {
			fingers[f] = Finger{Start: start[f], NodePosition: doubled[p].pos, NodeAddr: doubled[p].addr}
			f++
		} else {
			p++
		}
	}

	cache, err := lru.New(defaultLookupCacheSize)
	if err != nil {
		return nil, err
	}

	return &Table{
		m:            m,
		modulus:      modulus,
		selfPosition: selfPosition,
		selfAddr:     selfAddr,
		fingers:      fingers,
		lookupCache:  cache,
	}, nil
}

// Self returns this node's own ring position and address.
func (t *Table) Self() NodeInfo { return NodeInfo{Position: t.selfPosition, Addr: t.selfAddr} }

// M returns the configured ring-size exponent.
func (t *Table) M() uint { return t.m }

// Modulus returns 2^m.
func (t *Table) Modulus() uint64 { return t.modulus }

// Fingers returns a copy of the finger table, ordered by index.
func (t *Table) Fingers() []Finger {
	out := make([]Finger, len(t.fingers))
	copy(out, t.fingers)
	return out
}

// SuccessorOfSelf returns finger 1, this node's ring successor.
func (t *Table) SuccessorOfSelf() Finger { return t.fingers[1] }

// NearestPrecedingFinger scans fingers m-1 down to 0 and returns the
// first whose node position lies strictly between self and
// keyPosition, along with its index. ok is false if none qualifies.
func (t *Table) NearestPrecedingFinger(keyPosition uint64) (finger Finger, index int, ok bool) {
	return t.nearestPrecedingFingerBelow(keyPosition, int(t.m)-1)
}

func (t *Table) nearestPrecedingFingerBelow(keyPosition uint64, fromIndex int) (Finger, int, bool) {
	for i := fromIndex; i >= 0; i-- {
		if ring.InWraparoundRange(t.selfPosition, keyPosition, t.fingers[i].NodePosition, t.modulus, false, false) {
			return t.fingers[i], i, true
		}
	}
	return Finger{}, -1, false
}

// cachedLookup returns a previously resolved owner for keyPosition.
func (t *Table) cachedLookup(keyPosition uint64) (NodeInfo, bool) {
	v, ok := t.lookupCache.Get(keyPosition)
	if !ok {
		return NodeInfo{}, false
	}
	return v.(NodeInfo), true
}

func (t *Table) cacheLookup(keyPosition uint64, info NodeInfo) {
	t.lookupCache.Add(keyPosition, info)
}
