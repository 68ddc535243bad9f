// Command dhtnode runs a single chord ring member: it loads
// config.toml and a peer file, builds a finger table, binds a UDP
// socket, and serves the dispatch loop until a Shutdown request or a
// terminating signal arrives. Flag handling follows the teacher's own
// cmd/utils/flags.go style, built on gopkg.in/urfave/cli.v1.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/MOACChain/MoacLib/log"
	"gopkg.in/urfave/cli.v1"

	"github.com/DFriend01/dht-go/config"
	"github.com/DFriend01/dht-go/dht/node"
	"github.com/DFriend01/dht-go/peerlist"
)

var (
	portFlag = cli.IntFlag{
		Name:  "port",
		Value: 8080,
		Usage: "UDP port to bind the node's request/reply socket on",
	}
	serverIDFlag = cli.IntFlag{
		Name:  "server-id",
		Value: 0,
		Usage: "numeric identifier for this node, used only in log output",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Value: "config.toml",
		Usage: "path to config.toml, resolved relative to this binary's directory if not absolute",
	}
	peersFlag = cli.StringFlag{
		Name:  "peers",
		Value: "peers.txt",
		Usage: "path to the newline-delimited peer file",
	}
)

func resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return p
	}
	return filepath.Join(filepath.Dir(exe), p)
}

func run(c *cli.Context) error {
	serverID := c.Int(serverIDFlag.Name)
	port := c.Int(portFlag.Name)

	cfgPath := resolvePath(c.String(configFlag.Name))
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("dhtnode[%d]: %v", serverID, err), 1)
	}

	peersPath := resolvePath(c.String(peersFlag.Name))
	peers, err := peerlist.Load(peersPath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("dhtnode[%d]: %v", serverID, err), 1)
	}

	listenAddr := fmt.Sprintf("0.0.0.0:%d", port)
	selfAddr := fmt.Sprintf("127.0.0.1:%d", port)

	n, err := node.New(node.Config{
		ListenAddr:   listenAddr,
		SelfAddr:     selfAddr,
		Peers:        peers,
		SizingFactor: cfg.ChordSizingFactor,
		MaxMemBytes:  cfg.MaxMemBytes(),
	})
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("dhtnode[%d]: node start failed: %v", serverID, err), 1)
	}
	defer n.Close()

	// log_level is validated by config.Load but not wired to a handler:
	// MoacLib/log exposes no Root()/SetHandler-style API anywhere in the
	// retrieved corpus (see DESIGN.md), so there is nothing confirmed to
	// wire it to. Verbosity is therefore fixed at whatever MoacLib/log
	// defaults to, regardless of the configured value.
	log.Infof("dhtnode[%d]: listening on %s with %d peers, ring size 2^%d, log_level=%s",
		serverID, listenAddr, len(peers), cfg.ChordSizingFactor, cfg.LogLevel)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Infof("dhtnode[%d]: signal received, stopping", serverID)
		n.Stop()
	}()

	if err := n.Run(); err != nil {
		return cli.NewExitError(fmt.Sprintf("dhtnode[%d]: %v", serverID, err), 1)
	}
	log.Infof("dhtnode[%d]: shut down cleanly", serverID)
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "dhtnode"
	app.Usage = "run a chord ring key/value node"
	app.Flags = []cli.Flag{portFlag, serverIDFlag, configFlag, peersFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
