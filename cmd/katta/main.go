// Katta cluster administration and process launcher. One subcommand per
// operation; run without arguments for usage.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/engine/memindex"
	"github.com/kattaio/katta/master"
	"github.com/kattaio/katta/node"
	"github.com/kattaio/katta/zkclient"
)

const usageText = `Usage: katta <command> [options]

Commands:
  startMaster                                    run a placement controller
  startNode                                      run a worker node
  addIndex <name> <path> <analyzer> [replication]  announce an index for deployment
  removeIndex <name>                             undeploy and remove an index
  redeployIndex <name>                           re-announce an existing index
  listIndexes                                    show indexes with state and doc counts
  listNodes                                      show live nodes
  listErrors <name>                              show per-node deploy errors of an index
  showStructure                                  dump the coordination tree
  search <indexNames> "<query>" [count]          run a search
  count <indexNames> "<query>"                   count matching documents

Every command accepts -zk-servers "host:port ..." (default localhost:2181).
`

var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(1)
	}
	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "startMaster":
		err = runMaster(args)
	case "startNode":
		err = runNode(args)
	case "addIndex":
		err = runAddIndex(args)
	case "removeIndex":
		err = runRemoveIndex(args)
	case "redeployIndex":
		err = runRedeployIndex(args)
	case "listIndexes":
		err = runListIndexes(args)
	case "listNodes":
		err = runListNodes(args)
	case "listErrors":
		err = runListErrors(args)
	case "showStructure":
		err = runShowStructure(args)
	case "search":
		err = runSearch(args)
	case "count":
		err = runCount(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usageText)
		os.Exit(1)
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usageText)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	servers := fs.String("zk-servers", "localhost:2181", "zookeeper servers, separated by space")
	return fs, servers
}

func connect(servers string) (*zkclient.ZkClient, error) {
	return zkclient.Connect(strings.Fields(servers))
}

func defaultName(kind string) string {
	host, err := os.Hostname()
	if err != nil {
		return kind
	}
	return host
}

// waitForSignal blocks the serve commands until ctrl-c.
func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c
	common.Log().Info("shutdown signal received")
}

func runMaster(args []string) error {
	fs, servers := newFlagSet("startMaster")
	name := fs.String("name", defaultName("master"), "master name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	m := master.New(master.Configuration{Name: *name}, store)
	if err := m.Start(); err != nil {
		store.Close()
		return err
	}
	common.Log().Info("master running", zap.String("name", *name))
	waitForSignal()
	m.Stop()
	return nil
}

func runNode(args []string) error {
	fs, servers := newFlagSet("startNode")
	name := fs.String("name", defaultName("node"), "node name")
	host := fs.String("host", defaultName("localhost"), "advertised hostname")
	port := fs.Int("port", 20000, "rpc port, 0 picks a free one")
	workDir := fs.String("work-dir", "katta-shards", "local shard directory")
	throttle := fs.Int("throttle", 0, "shard download throttle in bytes/sec, 0 disables")
	timeoutPct := fs.Float64("timeout-pct", 0, "collector share of the search timeout")
	s3Endpoint := fs.String("s3-endpoint", "", "s3 endpoint for s3:// shard sources")
	s3Access := fs.String("s3-access-key", "", "s3 access key")
	s3Secret := fs.String("s3-secret-key", "", "s3 secret key")
	s3SSL := fs.Bool("s3-ssl", true, "use https for s3")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	n := node.New(node.Configuration{
		Name:                *name,
		Host:                *host,
		Port:                *port,
		WorkDir:             *workDir,
		TimeoutPct:          *timeoutPct,
		ThrottleBytesPerSec: *throttle,
		S3: node.S3Config{
			Endpoint:  *s3Endpoint,
			AccessKey: *s3Access,
			SecretKey: *s3Secret,
			UseSSL:    *s3SSL,
		},
	}, store, memindex.New())
	if err := n.Start(); err != nil {
		store.Close()
		return err
	}
	waitForSignal()
	n.Stop()
	return nil
}
