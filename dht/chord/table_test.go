package chord

import (
	"testing"

	"github.com/DFriend01/dht-go/dht/ring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsTooManyPeersForRingSize(t *testing.T) {
	peers := []string{"a:1", "b:1", "c:1", "d:1"}
	_, err := New("self:1", peers, 2) // 2^2 = 4, need |peers|+1 <= 4
	assert.ErrorIs(t, err, ErrTooManyPeers)
}

func TestStartSequenceMatchesRecurrence(t *testing.T) {
	const m = 8
	peers := []string{"p1:1", "p2:1", "p3:1"}
	tbl, err := New("self:1", peers, m)
	require.NoError(t, err)

	fingers := tbl.Fingers()
	modulus := tbl.Modulus()
	selfPos := tbl.Self().Position

	require.Equal(t, selfPos, fingers[0].Start)
	for i := 1; i < m; i++ {
		want := (fingers[i-1].Start + (uint64(1) << uint(i-1))) % modulus
		assert.Equal(t, want, fingers[i].Start, "start[%d]", i)
	}
}

func TestFingerZeroIsSelf(t *testing.T) {
	tbl, err := New("self:1", []string{"a:1", "b:1"}, 6)
	require.NoError(t, err)
	self := tbl.Self()
	assert.Equal(t, self.Position, tbl.Fingers()[0].NodePosition)
	assert.Equal(t, self.Addr, tbl.Fingers()[0].NodeAddr)
}

func TestEveryFingerAssignedEvenWithWraparound(t *testing.T) {
	// Every peer sits less than 511 positions after self, so the start
	// of the last finger (self + 511) lies past all of them and that
	// finger resolves only through the doubled-array wraparound case;
	// without it the finger would stay at its self default.
	peers := []string{"peer-e:9000", "peer-b:9000", "peer-f:9000", "peer-d:9000"}
	tbl, err := New("self:9000", peers, 10)
	require.NoError(t, err)

	fingers := tbl.Fingers()
	for i := 1; i < len(fingers); i++ {
		assert.NotEqual(t, tbl.Self().Addr, fingers[i].NodeAddr, "finger %d left unassigned", i)
	}
}

func TestNoPeersEveryFingerDefaultsToSelf(t *testing.T) {
	tbl, err := New("self:1", nil, 5)
	require.NoError(t, err)
	self := tbl.Self()
	for i, f := range tbl.Fingers() {
		assert.Equal(t, self.Position, f.NodePosition, "finger %d", i)
		assert.Equal(t, self.Addr, f.NodeAddr, "finger %d", i)
	}
}

func TestSuccessorOfSelfIsFingerOne(t *testing.T) {
	tbl, err := New("self:1", []string{"a:1", "b:1"}, 6)
	require.NoError(t, err)
	assert.Equal(t, tbl.Fingers()[1], tbl.SuccessorOfSelf())
}

func TestNearestPrecedingFingerStrictBetweenSelfAndKey(t *testing.T) {
	const m = 8
	tbl, err := New("self:1", []string{"a:1", "b:1", "c:1"}, m)
	require.NoError(t, err)

	self := tbl.Self().Position
	modulus := tbl.Modulus()
	keyPos := (self + modulus/2) % modulus

	finger, idx, ok := tbl.NearestPrecedingFinger(keyPos)
	if !ok {
		return // legitimately no finger strictly precedes this key on a sparse table
	}
	assert.True(t, ring.InWraparoundRange(self, keyPos, finger.NodePosition, modulus, false, false))
	assert.GreaterOrEqual(t, idx, 0)
}
