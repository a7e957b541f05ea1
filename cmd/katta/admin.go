package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kattaio/katta/client"
	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/zkclient"
)

const deployPollInterval = 500 * time.Millisecond

// discoverShards lists the shard sources under an index directory.
// Subdirectories and .tar.zst archives count; everything else is
// ignored.
func discoverShards(indexPath string) (map[string]string, error) {
	entries, err := os.ReadDir(indexPath)
	if err != nil {
		return nil, fmt.Errorf("read index path: %w", err)
	}
	shards := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !e.IsDir() && !strings.HasSuffix(name, ".tar.zst") {
			continue
		}
		shard := strings.TrimSuffix(name, ".tar.zst")
		shards[shard] = filepath.Join(indexPath, name)
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("no shards found under %s", indexPath)
	}
	return shards, nil
}

// waitForDeployment polls the index metadata until the master reports
// a terminal state.
func waitForDeployment(store *zkclient.ZkClient, name string) error {
	for {
		var meta common.IndexMetaData
		found, err := store.Read(common.ZkIndexPath(name), &meta)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("index %s vanished during deployment", name)
		}
		switch meta.State {
		case common.IndexDeployed:
			fmt.Printf("\ndeployed index %s\n", name)
			return nil
		case common.IndexDeployError:
			fmt.Println()
			return fmt.Errorf("deployment of index %s failed: %s", name, meta.ErrorMessage)
		}
		fmt.Print(".")
		time.Sleep(deployPollInterval)
	}
}

func runAddIndex(args []string) error {
	fs, servers := newFlagSet("addIndex")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()
	if len(rest) < 3 || len(rest) > 4 {
		return errUsage
	}
	name, indexPath, analyzer := rest[0], rest[1], rest[2]
	replication := 1
	if len(rest) == 4 {
		var err error
		replication, err = strconv.Atoi(rest[3])
		if err != nil || replication < 1 {
			return errUsage
		}
	}
	shards, err := discoverShards(indexPath)
	if err != nil {
		return err
	}
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsurePath(common.ZkIndexesPath); err != nil {
		return err
	}
	exists, err := store.Exists(common.ZkIndexPath(name))
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("index %s already exists", name)
	}
	// The announce is staged: create the index and shards first, then
	// flip the state so the master sees a complete tree.
	meta := &common.IndexMetaData{
		Name:             name,
		Path:             indexPath,
		Analyzer:         analyzer,
		ReplicationLevel: replication,
	}
	if err := store.CreatePersistent(common.ZkIndexPath(name), meta); err != nil {
		return err
	}
	for shard, source := range shards {
		err := store.CreatePersistent(common.ZkShardPath(name, shard),
			&common.ShardMetaData{Name: shard, Index: name, Path: source})
		if err != nil {
			return err
		}
	}
	meta.State = common.IndexAnnounced
	if err := store.Write(common.ZkIndexPath(name), meta); err != nil {
		return err
	}
	fmt.Printf("announced index %s with %d shards\n", name, len(shards))
	return waitForDeployment(store, name)
}

func runRemoveIndex(args []string) error {
	fs, servers := newFlagSet("removeIndex")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return errUsage
	}
	name := rest[0]
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	defer store.Close()
	exists, err := store.Exists(common.ZkIndexPath(name))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("index %s not found", name)
	}
	if err := store.DeleteRecursive(common.ZkIndexPath(name)); err != nil {
		return err
	}
	fmt.Printf("removed index %s\n", name)
	return nil
}

func runRedeployIndex(args []string) error {
	fs, servers := newFlagSet("redeployIndex")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return errUsage
	}
	name := rest[0]
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	defer store.Close()
	var meta common.IndexMetaData
	found, err := store.Read(common.ZkIndexPath(name), &meta)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("index %s not found", name)
	}
	meta.State = common.IndexAnnounced
	meta.ErrorMessage = ""
	if err := store.Write(common.ZkIndexPath(name), &meta); err != nil {
		return err
	}
	fmt.Printf("re-announced index %s\n", name)
	return waitForDeployment(store, name)
}

// indexDocCount sums the document counts of the open replicas, one
// replica per shard.
func indexDocCount(store *zkclient.ZkClient, shards []string) int {
	total := 0
	for _, shard := range shards {
		nodes, err := store.Children(common.ZkShardNodesPath(shard))
		if err != nil {
			continue
		}
		for _, node := range nodes {
			var record common.DeployedShard
			found, err := store.Read(common.ZkShardNodePath(shard, node), &record)
			if err != nil || !found || record.State != common.ShardOpen {
				continue
			}
			total += record.ShardSize
			break
		}
	}
	return total
}

func runListIndexes(args []string) error {
	fs, servers := newFlagSet("listIndexes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	defer store.Close()
	indexes, err := store.Children(common.ZkIndexesPath)
	if err != nil {
		return err
	}
	sort.Strings(indexes)
	t := newTable("NAME", "STATE", "REPLICATION", "SHARDS", "DOCS", "ERROR")
	for _, name := range indexes {
		var meta common.IndexMetaData
		found, err := store.Read(common.ZkIndexPath(name), &meta)
		if err != nil || !found {
			continue
		}
		shards, err := store.Children(common.ZkIndexPath(name))
		if err != nil {
			return err
		}
		t.addRow(name, string(meta.State),
			strconv.Itoa(meta.ReplicationLevel),
			strconv.Itoa(len(shards)),
			strconv.Itoa(indexDocCount(store, shards)),
			meta.ErrorMessage)
	}
	fmt.Print(t)
	return nil
}

func runListNodes(args []string) error {
	fs, servers := newFlagSet("listNodes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	defer store.Close()
	nodes, err := store.Children(common.ZkNodesPath)
	if err != nil {
		return err
	}
	sort.Strings(nodes)
	t := newTable("NAME", "ADDRESS", "HEALTHY", "STATUS", "STARTED")
	for _, name := range nodes {
		var meta common.NodeMetaData
		found, err := store.Read(common.ZkNodePath(name), &meta)
		if err != nil || !found {
			continue
		}
		t.addRow(name, meta.Address(),
			strconv.FormatBool(meta.Healthy), meta.Status,
			time.UnixMilli(meta.StartTime).Format(time.RFC3339))
	}
	fmt.Print(t)
	return nil
}

func runListErrors(args []string) error {
	fs, servers := newFlagSet("listErrors")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return errUsage
	}
	name := rest[0]
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	defer store.Close()
	exists, err := store.Exists(common.ZkIndexPath(name))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("index %s not found", name)
	}
	shards, err := store.Children(common.ZkIndexPath(name))
	if err != nil {
		return err
	}
	sort.Strings(shards)
	t := newTable("SHARD", "NODE", "ERROR")
	count := 0
	for _, shard := range shards {
		nodes, err := store.Children(common.ZkShardNodesPath(shard))
		if err != nil {
			continue
		}
		sort.Strings(nodes)
		for _, node := range nodes {
			var record common.DeployedShard
			found, err := store.Read(common.ZkShardNodePath(shard, node), &record)
			if err != nil || !found || record.State != common.ShardError {
				continue
			}
			t.addRow(shard, node, record.ErrorMessage)
			count++
		}
	}
	if count == 0 {
		fmt.Printf("no deploy errors for index %s\n", name)
		return nil
	}
	fmt.Print(t)
	return nil
}

func printTree(store *zkclient.ZkClient, p string, depth int) error {
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), path.Base(p))
	children, err := store.Children(p)
	if err != nil {
		return err
	}
	sort.Strings(children)
	for _, child := range children {
		if err := printTree(store, path.Join(p, child), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func runShowStructure(args []string) error {
	fs, servers := newFlagSet("showStructure")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	defer store.Close()
	exists, err := store.Exists(common.ZkRoot)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Printf("%s does not exist\n", common.ZkRoot)
		return nil
	}
	return printTree(store, common.ZkRoot, 0)
}

func runSearch(args []string) error {
	fs, servers := newFlagSet("search")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()
	if len(rest) < 2 || len(rest) > 3 {
		return errUsage
	}
	indexes := strings.Split(rest[0], ",")
	query := rest[1]
	limit := 10
	if len(rest) == 3 {
		var err error
		limit, err = strconv.Atoi(rest[2])
		if err != nil || limit < 0 {
			return errUsage
		}
	}
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	c, err := client.New(client.Configuration{}, store)
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	result, err := c.Search(context.Background(), indexes, []byte(query), nil, limit, nil)
	if err != nil {
		return err
	}
	fmt.Printf("%d hits (%s)\n", result.TotalHits, time.Since(start).Round(time.Millisecond))
	t := newTable("RANK", "SCORE", "NODE", "SHARD", "DOC")
	for i, h := range result.Hits {
		t.addRow(strconv.Itoa(i+1),
			strconv.FormatFloat(float64(h.Score), 'f', 4, 32),
			h.Node, h.Shard, strconv.Itoa(int(h.DocID)))
	}
	fmt.Print(t)
	return nil
}

func runCount(args []string) error {
	fs, servers := newFlagSet("count")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return errUsage
	}
	indexes := strings.Split(rest[0], ",")
	store, err := connect(*servers)
	if err != nil {
		return err
	}
	c, err := client.New(client.Configuration{}, store)
	if err != nil {
		return err
	}
	defer c.Close()
	count, err := c.Count(context.Background(), indexes, []byte(rest[1]))
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}
