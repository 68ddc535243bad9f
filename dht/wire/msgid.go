package wire

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// NumRandBytes is the number of trailing random bytes appended to
// every generated message id. It may be widened by a deployment that
// sees id collisions under very high request concurrency from a
// single sender; widening it changes nothing observable except the
// id's length, since the id is an opaque byte string to every peer.
const NumRandBytes = 2

// NewMessageID builds a message id for an outgoing request: the ASCII
// text of the sender's IP, its port (2 bytes, big-endian), nanoseconds
// since the Unix epoch (16 bytes, big-endian), and NumRandBytes random
// bytes. Concatenating sender identity and a timestamp makes ids
// reproducibly unique across attempts from the same sender; the random
// suffix absorbs collisions within the same nanosecond.
func NewMessageID(ip net.IP, port uint16) ([]byte, error) {
	ipText := []byte(ip.String())

	id := make([]byte, 0, len(ipText)+2+16+NumRandBytes)
	id = append(id, ipText...)

	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], port)
	id = append(id, portBuf[:]...)

	// The wire contract reserves 16 bytes for the nanosecond timestamp.
	// A Go time.Duration/UnixNano value fits in the low 8; the high 8
	// stay zero today, keeping the id's shape stable if a future
	// revision widens the clock representation.
	var nanoBuf [16]byte
	binary.BigEndian.PutUint64(nanoBuf[8:], uint64(time.Now().UnixNano()))
	id = append(id, nanoBuf[:]...)

	randBuf := make([]byte, NumRandBytes)
	if _, err := rand.Read(randBuf); err != nil {
		return nil, fmt.Errorf("wire: generate message id: %w", err)
	}
	id = append(id, randBuf...)

	return id, nil
}
