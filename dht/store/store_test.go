package store

import (
	"testing"

	"github.com/DFriend01/dht-go/dht/wire"
	"github.com/stretchr/testify/assert"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := New(1024)
	status := s.Put([]byte("k"), []byte("v"))
	assert.Equal(t, wire.StatusSuccess, status)

	v, status := s.Get([]byte("k"))
	assert.Equal(t, wire.StatusSuccess, status)
	assert.Equal(t, []byte("v"), v)
}

func TestPutRejectsNilKeyOrValue(t *testing.T) {
	s := New(1024)
	assert.Equal(t, wire.StatusMissingKey, s.Put(nil, []byte("v")))
	assert.Equal(t, wire.StatusMissingValue, s.Put([]byte("k"), nil))
}

func TestPutRejectsOversizedValue(t *testing.T) {
	s := New(1 << 20)
	big := make([]byte, DefaultMaxValueBytes+1)
	assert.Equal(t, wire.StatusInvalidValueSize, s.Put([]byte("k"), big))
}

func TestGetDeleteMissingKey(t *testing.T) {
	s := New(1024)
	_, status := s.Get([]byte("missing"))
	assert.Equal(t, wire.StatusKeyNotFound, status)

	_, status = s.Delete([]byte("missing"))
	assert.Equal(t, wire.StatusKeyNotFound, status)
}

func TestPutEnforcesCapacity(t *testing.T) {
	s := New(4) // room for exactly one "kk"+"vv" style 4-byte entry
	status := s.Put([]byte("ab"), []byte("cd"))
	assert.Equal(t, wire.StatusSuccess, status)

	status = s.Put([]byte("ef"), []byte("gh"))
	assert.Equal(t, wire.StatusOutOfMemory, status)
}

func TestOverwriteAccountsNetDeltaNotBlindAddition(t *testing.T) {
	// Capacity fits "k"+"aaaa" (5 bytes) but not also "k"+"bbbbbbbb" on
	// top of it; a buggy implementation that adds the new size without
	// subtracting the old one would wrongly reject this overwrite.
	s := New(9)
	require := assert.New(t)

	require.Equal(wire.StatusSuccess, s.Put([]byte("k"), []byte("aaaa")))
	require.Equal(uint64(5), s.Used())

	require.Equal(wire.StatusSuccess, s.Put([]byte("k"), []byte("bbbbbbbb")))
	require.Equal(uint64(9), s.Used())
}

func TestOverwriteStillRejectedIfNetGrowthExceedsCapacity(t *testing.T) {
	s := New(5)
	assert.Equal(t, wire.StatusSuccess, s.Put([]byte("k"), []byte("aaaa")))
	assert.Equal(t, wire.StatusOutOfMemory, s.Put([]byte("k"), []byte("aaaaaaaa")))
	// the original value must remain untouched on rejection
	v, status := s.Get([]byte("k"))
	assert.Equal(t, wire.StatusSuccess, status)
	assert.Equal(t, []byte("aaaa"), v)
}

func TestDeleteReclaimsUsedBytes(t *testing.T) {
	s := New(1024)
	s.Put([]byte("k"), []byte("value"))
	assert.NotZero(t, s.Used())

	_, status := s.Delete([]byte("k"))
	assert.Equal(t, wire.StatusSuccess, status)
	assert.Zero(t, s.Used())
}

func TestWipeClearsEverything(t *testing.T) {
	s := New(1024)
	s.Put([]byte("a"), []byte("1"))
	s.Put([]byte("b"), []byte("2"))
	s.Wipe()

	assert.Zero(t, s.Used())
	_, status := s.Get([]byte("a"))
	assert.Equal(t, wire.StatusKeyNotFound, status)
}
