// Command dhtctl is the operator/client tool for a dhtnode ring: it
// speaks the exact wire protocol a node serves, either as one-shot
// subcommands, an interactive shell, or a status dashboard.
// Supplements original_source/dht/src/client.rs, a minimal hand-rolled
// UDP client that only ever sends a literal "Ping" — a real deployment
// needs more than that to operate.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"gopkg.in/urfave/cli.v1"

	"github.com/DFriend01/dht-go/dht/wire"
)

func init() {
	// Routing fatih/color through go-colorable lets the ANSI colors of
	// status/printReply output render on Windows consoles that do not
	// interpret escape codes. fatih/color still turns color off when
	// stdout is not a terminal, so redirected output is uncolored.
	color.Output = colorable.NewColorableStdout()
	color.Error = colorable.NewColorableStderr()
}

func decodeHexArg(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

func printReply(reply wire.ReplyPayload) {
	if reply.Status == wire.StatusSuccess {
		color.Green("status: %s", reply.Status)
	} else {
		color.Red("status: %s", reply.Status)
	}
	if reply.Value != nil {
		fmt.Printf("value: %s\n", hex.EncodeToString(reply.Value))
	}
	if reply.Pid != nil {
		fmt.Printf("pid: %d\n", *reply.Pid)
	}
	if reply.NodeInfo != nil {
		fmt.Printf("node: position=%d addr=%s\n", reply.NodeInfo.NodePosition, reply.NodeInfo.NodeAddress)
	}
}

func oneShot(op wire.Operation, needsKey, needsValue bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		args := c.Args()
		if len(args) < 1 {
			return cli.NewExitError("usage: dhtctl "+strings.ToLower(op.String())+" <addr> [key] [value]", 1)
		}
		addr := args[0]
		req := wire.RequestPayload{Operation: op}

		if needsKey {
			if len(args) < 2 {
				return cli.NewExitError("missing key argument", 1)
			}
			key, err := decodeHexArg(args[1])
			if err != nil {
				req.Key = []byte(args[1])
			} else {
				req.Key = key
			}
		}
		if needsValue {
			if len(args) < 3 {
				return cli.NewExitError("missing value argument", 1)
			}
			value, err := decodeHexArg(args[2])
			if err != nil {
				req.Value = []byte(args[2])
			} else {
				req.Value = value
			}
		}

		reply, err := sendRequest(addr, req)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		printReply(reply)
		return nil
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "dhtctl"
	app.Usage = "operate and inspect a chord ring key/value node"
	app.Commands = []cli.Command{
		{Name: "ping", Usage: "ping <addr>", Action: oneShot(wire.OpPing, false, false)},
		{Name: "get", Usage: "get <addr> <key>", Action: oneShot(wire.OpGet, true, false)},
		{Name: "put", Usage: "put <addr> <key> <value>", Action: oneShot(wire.OpPut, true, true)},
		{Name: "delete", Usage: "delete <addr> <key>", Action: oneShot(wire.OpDelete, true, false)},
		{Name: "wipe", Usage: "wipe <addr>", Action: oneShot(wire.OpWipe, false, false)},
		{Name: "getpid", Usage: "getpid <addr>", Action: oneShot(wire.OpGetPid, false, false)},
		{Name: "shutdown", Usage: "shutdown <addr>", Action: oneShot(wire.OpShutdown, false, false)},
		{
			Name:  "shell",
			Usage: "shell <addr> — interactive REPL speaking the same verbs",
			Action: func(c *cli.Context) error {
				if len(c.Args()) < 1 {
					return cli.NewExitError("usage: dhtctl shell <addr>", 1)
				}
				return runShell(c.Args()[0])
			},
		},
		{
			Name:  "status",
			Usage: "status <addr> [--watch]",
			Flags: []cli.Flag{cli.BoolFlag{Name: "watch"}},
			Action: func(c *cli.Context) error {
				if len(c.Args()) < 1 {
					return cli.NewExitError("usage: dhtctl status <addr> [--watch]", 1)
				}
				addr := c.Args()[0]
				if c.Bool("watch") {
					return runStatusWatch(addr)
				}
				return runStatusOnce(addr)
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
