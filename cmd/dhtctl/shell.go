package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/DFriend01/dht-go/dht/wire"
)

var shellVerbs = map[string]struct {
	op         wire.Operation
	needsKey   bool
	needsValue bool
}{
	"ping":     {wire.OpPing, false, false},
	"get":      {wire.OpGet, true, false},
	"put":      {wire.OpPut, true, true},
	"delete":   {wire.OpDelete, true, false},
	"wipe":     {wire.OpWipe, false, false},
	"getpid":   {wire.OpGetPid, false, false},
	"shutdown": {wire.OpShutdown, false, false},
}

// runShell drives an interactive line-editing session against addr,
// built on the teacher's own console dependency (peterh/liner is the
// line editor behind go-ethereum-family JS consoles).
func runShell(addr string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := os.TempDir() + "/.dhtctl_history"
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("connected to %s — verbs: ping get put delete wipe getpid shutdown quit\n", addr)
	for {
		input, err := line.Prompt("dhtctl> ")
		if err != nil {
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if input == "quit" || input == "exit" {
			break
		}

		fields := strings.Fields(input)
		verb, ok := shellVerbs[fields[0]]
		if !ok {
			fmt.Println("unknown verb:", fields[0])
			continue
		}
		req := wire.RequestPayload{Operation: verb.op}
		args := fields[1:]
		if verb.needsKey {
			if len(args) < 1 {
				fmt.Println("missing key")
				continue
			}
			req.Key = decodeOrLiteral(args[0])
			args = args[1:]
		}
		if verb.needsValue {
			if len(args) < 1 {
				fmt.Println("missing value")
				continue
			}
			req.Value = decodeOrLiteral(args[0])
		}

		reply, err := sendRequest(addr, req)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		printReply(reply)
	}

	if f, err := os.Create(historyPath); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
	return nil
}

func decodeOrLiteral(s string) []byte {
	if b, err := hex.DecodeString(s); err == nil {
		return b
	}
	return []byte(s)
}
