package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	f, err := NewFrame(net.ParseIP("127.0.0.1"), 9001, []byte("hello"))
	require.NoError(t, err)

	encoded := f.Encode()
	decoded, err := DecodeAndVerifyFrame(encoded)
	require.NoError(t, err)

	assert.Equal(t, f.ID, decoded.ID)
	assert.Equal(t, f.Payload, decoded.Payload)
	assert.Equal(t, f.Checksum, decoded.Checksum)
}

func TestFrameTamperDetection(t *testing.T) {
	f, err := NewFrame(net.ParseIP("127.0.0.1"), 9001, []byte("hello"))
	require.NoError(t, err)
	encoded := f.Encode()

	for i := range encoded {
		tampered := append([]byte(nil), encoded...)
		tampered[i] ^= 0x01
		_, err := DecodeAndVerifyFrame(tampered)
		assert.Error(t, err, "bit flip at byte %d went undetected", i)
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	_, err := DecodeFrame([]byte{0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestDecodeFrameRejectsIncompleteFrame(t *testing.T) {
	f, err := NewFrame(net.ParseIP("10.0.0.5"), 1234, []byte("payload"))
	require.NoError(t, err)
	encoded := f.Encode()

	// Drop the last three bytes, which cuts into (or removes) the
	// trailing checksum field.
	_, err = DecodeFrame(encoded[:len(encoded)-3])
	assert.Error(t, err)
}

func TestMessageIDUniqueAcrossCalls(t *testing.T) {
	ip := net.ParseIP("192.168.1.1")
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewMessageID(ip, 8080)
		require.NoError(t, err)
		key := string(id)
		assert.False(t, seen[key], "duplicate message id generated")
		seen[key] = true
	}
}
