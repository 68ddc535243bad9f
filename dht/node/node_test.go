package node

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DFriend01/dht-go/dht/rpcchannel"
	"github.com/DFriend01/dht-go/dht/transport"
	"github.com/DFriend01/dht-go/dht/wire"
)

// testHarness brings up one node on loopback and a client channel to
// drive it, mirroring the concrete end-to-end scenarios from spec.md §8.
type testHarness struct {
	t      *testing.T
	n      *Node
	client *rpcchannel.Channel
	addr   *net.UDPAddr
}

func newHarness(t *testing.T, maxMemBytes uint64) *testHarness {
	t.Helper()
	n, err := New(Config{
		ListenAddr:   "127.0.0.1:0",
		SelfAddr:     "127.0.0.1:9999",
		SizingFactor: 8,
		MaxMemBytes:  maxMemBytes,
	})
	require.NoError(t, err)

	clientTransport, err := transport.Listen("127.0.0.1:0")
	require.NoError(t, err)
	client, err := rpcchannel.New(clientTransport)
	require.NoError(t, err)

	go n.Run()

	h := &testHarness{t: t, n: n, client: client, addr: n.LocalAddr().(*net.UDPAddr)}
	t.Cleanup(func() {
		client.Close()
	})
	return h
}

func (h *testHarness) send(req wire.RequestPayload) wire.ReplyPayload {
	h.t.Helper()
	frame, _, err := h.client.SendAndRecv(req.Encode(), h.addr)
	require.NoError(h.t, err)
	reply, err := wire.DecodeReplyPayload(frame.Payload)
	require.NoError(h.t, err)
	return reply
}

func TestS1Ping(t *testing.T) {
	h := newHarness(t, 1<<20)
	reply := h.send(wire.RequestPayload{Operation: wire.OpPing})
	assert.Equal(t, wire.StatusSuccess, reply.Status)
}

func TestS2PutThenGet(t *testing.T) {
	h := newHarness(t, 1<<20)
	key := []byte{0x6b, 0x65, 0x79}
	value := []byte{0x76, 0x61, 0x6c, 0x75, 0x65}

	putReply := h.send(wire.RequestPayload{Operation: wire.OpPut, Key: key, Value: value})
	assert.Equal(t, wire.StatusSuccess, putReply.Status)

	getReply := h.send(wire.RequestPayload{Operation: wire.OpGet, Key: key})
	assert.Equal(t, wire.StatusSuccess, getReply.Status)
	assert.Equal(t, value, getReply.Value)
}

func TestS3GetOnEmptyStore(t *testing.T) {
	h := newHarness(t, 1<<20)
	reply := h.send(wire.RequestPayload{Operation: wire.OpGet, Key: []byte{0xAA}})
	assert.Equal(t, wire.StatusKeyNotFound, reply.Status)
}

func TestS4PutMissingKey(t *testing.T) {
	h := newHarness(t, 1<<20)
	reply := h.send(wire.RequestPayload{Operation: wire.OpPut, Value: []byte{0x01}})
	assert.Equal(t, wire.StatusMissingKey, reply.Status)
}

func TestS5PutOversizedValue(t *testing.T) {
	h := newHarness(t, 1<<20)
	big := make([]byte, 11*1024)
	reply := h.send(wire.RequestPayload{Operation: wire.OpPut, Key: []byte{0xAA}, Value: big})
	assert.Equal(t, wire.StatusInvalidValueSize, reply.Status)
}

func TestS6FillToCapacityThenWipeThenPutAgain(t *testing.T) {
	entrySize := uint64(1024 + 8192)
	h := newHarness(t, entrySize) // room for exactly one entry

	key1 := make([]byte, 1024)
	val1 := make([]byte, 8192)
	reply := h.send(wire.RequestPayload{Operation: wire.OpPut, Key: key1, Value: val1})
	require.Equal(t, wire.StatusSuccess, reply.Status)

	key2 := make([]byte, 1024)
	key2[0] = 0x01
	val2 := make([]byte, 8192)
	reply = h.send(wire.RequestPayload{Operation: wire.OpPut, Key: key2, Value: val2})
	assert.Equal(t, wire.StatusOutOfMemory, reply.Status)

	reply = h.send(wire.RequestPayload{Operation: wire.OpWipe})
	require.Equal(t, wire.StatusSuccess, reply.Status)

	reply = h.send(wire.RequestPayload{Operation: wire.OpPut, Key: key1, Value: val1})
	assert.Equal(t, wire.StatusSuccess, reply.Status)
}

func TestS7PutDeleteGet(t *testing.T) {
	h := newHarness(t, 1<<20)
	key := []byte("k")
	value := []byte("v")

	reply := h.send(wire.RequestPayload{Operation: wire.OpPut, Key: key, Value: value})
	require.Equal(t, wire.StatusSuccess, reply.Status)

	reply = h.send(wire.RequestPayload{Operation: wire.OpDelete, Key: key})
	require.Equal(t, wire.StatusSuccess, reply.Status)
	assert.Equal(t, value, reply.Value)

	reply = h.send(wire.RequestPayload{Operation: wire.OpGet, Key: key})
	assert.Equal(t, wire.StatusKeyNotFound, reply.Status)
}

func TestS8GetPid(t *testing.T) {
	h := newHarness(t, 1<<20)
	reply := h.send(wire.RequestPayload{Operation: wire.OpGetPid})
	require.Equal(t, wire.StatusSuccess, reply.Status)
	require.NotNil(t, reply.Pid)
	assert.Equal(t, uint32(os.Getpid()), *reply.Pid)
}

func TestS9ShutdownThenPingTimesOut(t *testing.T) {
	h := newHarness(t, 1<<20)
	reply := h.send(wire.RequestPayload{Operation: wire.OpShutdown})
	assert.Equal(t, wire.StatusSuccess, reply.Status)

	// give the dispatch loop's own goroutine a moment to observe
	// running=false and exit before probing it again.
	time.Sleep(50 * time.Millisecond)

	_, err := h.client.SendAndRecv(wire.RequestPayload{Operation: wire.OpPing}.Encode(), h.addr)
	assert.ErrorIs(t, err, transport.ErrTimedOut)
}

func TestStopUnblocksRunFromOutsideItsOwnGoroutine(t *testing.T) {
	// Built directly rather than via newHarness, which already starts
	// its own Run goroutine — a second one racing the same socket would
	// defeat the point of this test.
	n, err := New(Config{
		ListenAddr:   "127.0.0.1:0",
		SelfAddr:     "127.0.0.1:9998",
		SizingFactor: 8,
		MaxMemBytes:  1 << 20,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- n.Run() }()

	// Give Run a moment to enter its first Listen call, then stop it
	// the way a signal handler would — from a different goroutine,
	// with no Shutdown request ever sent.
	time.Sleep(20 * time.Millisecond)
	n.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop; it is spinning on the closed socket")
	}
}

func TestRetransmittedRequestReplaysCachedReplyWithoutSecondMutation(t *testing.T) {
	h := newHarness(t, 1<<20)
	key := []byte("k")

	frame, err := wire.NewFrame(h.addr.IP, 40000, wire.RequestPayload{Operation: wire.OpPut, Key: key, Value: []byte("v1")}.Encode())
	require.NoError(t, err)

	buf := make([]byte, transport.MaxBufferBytes)
	conn, err := net.DialUDP("udp", nil, h.addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(frame.Encode())
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	n1, err := conn.Read(buf)
	require.NoError(t, err)
	first, err := wire.DecodeAndVerifyFrame(buf[:n1])
	require.NoError(t, err)

	// Retransmit the identical frame bytes (same id) as the transport
	// layer would on a timeout; the cached reply must come back
	// byte-for-byte identical, and the store must not have moved.
	_, err = conn.Write(frame.Encode())
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	n2, err := conn.Read(buf)
	require.NoError(t, err)
	second, err := wire.DecodeAndVerifyFrame(buf[:n2])
	require.NoError(t, err)

	assert.Equal(t, first.Payload, second.Payload)
	assert.Equal(t, uint64(len(key)+len("v1")), h.n.store.Used())
}
