// Package peerlist loads the newline-delimited ip:port peer file a
// node is started with. Grounded on
// original_source/dht/src/util/mod.rs's read_socket_addresses, with
// blank lines tolerated per spec.md §6 (the original rejects them;
// the wire contract here explicitly allows them).
package peerlist

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
)

// Load reads path and returns every non-blank line as a validated
// "ip:port" address. Any malformed, non-blank entry aborts the load
// and returns an error identifying the offending line.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var addrs []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(line); err != nil {
			return nil, fmt.Errorf("peerlist: %s:%d: invalid peer address %q: %w", path, lineNum, line, err)
		}
		addrs = append(addrs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return addrs, nil
}
