package zkclient

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/samuel/go-zookeeper/zk"
	"go.uber.org/zap"

	"github.com/kattaio/katta/common"
)

const (
	sessionTimeout = 10 * time.Second
	// delay before re-arming a watch after a transient store error
	retryDelay = time.Second
)

// ZkClient implements Store on top of a live zookeeper ensemble.
type ZkClient struct {
	conn *zk.Conn

	mu        sync.Mutex
	listeners []SessionListener
	connected bool
	closed    chan struct{}
}

var _ Store = (*ZkClient)(nil)

func Connect(servers []string) (*ZkClient, error) {
	conn, events, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect %v: %w", servers, common.ErrStoreUnavailable)
	}
	conn.SetLogger(&common.ZkLoggerAdapter{})
	c := &ZkClient{
		conn:      conn,
		connected: true,
		closed:    make(chan struct{}),
	}
	go c.sessionLoop(events)
	return c, nil
}

// sessionLoop fans the raw connection events out to session listeners,
// collapsing them so each disconnect and each reconnect is reported
// exactly once.
func (c *ZkClient) sessionLoop(events <-chan zk.Event) {
	for {
		select {
		case <-c.closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != zk.EventSession {
				continue
			}
			switch ev.State {
			case zk.StateHasSession:
				c.notifySession(true)
			case zk.StateDisconnected, zk.StateExpired:
				c.notifySession(false)
			}
		}
	}
}

func (c *ZkClient) notifySession(connected bool) {
	c.mu.Lock()
	if c.connected == connected {
		c.mu.Unlock()
		return
	}
	c.connected = connected
	listeners := make([]SessionListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	if connected {
		common.Log().Info("store session reconnected")
	} else {
		common.Log().Warn("store session disconnected")
	}
	for _, l := range listeners {
		l(connected)
	}
}

func (c *ZkClient) SubscribeSession(l SessionListener) *Subscription {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
	// session listeners live for the client lifetime; Cancel is a no-op
	// beyond marking the handle.
	return newSubscription()
}

func (c *ZkClient) Close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	c.conn.Close()
}

func classify(err error) error {
	switch err {
	case nil:
		return nil
	case zk.ErrBadVersion:
		return common.ErrStoreConflict
	case zk.ErrConnectionClosed, zk.ErrSessionExpired, zk.ErrNoServer, zk.ErrSessionMoved:
		return common.ErrStoreUnavailable
	default:
		return err
	}
}

func wrap(op, p string, err error) error {
	return fmt.Errorf("%s %s: %w", op, p, classify(err))
}

func marshal(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	return json.Marshal(v)
}

func (c *ZkClient) EnsurePath(p string) error {
	cp := "/"
	for _, d := range strings.Split(p, "/") {
		if d == "" {
			continue
		}
		cp = path.Join(cp, d)
		exists, _, err := c.conn.Exists(cp)
		if err != nil {
			return wrap("ensure", cp, err)
		}
		if !exists {
			_, err = c.conn.Create(cp, []byte{}, 0, zk.WorldACL(zk.PermAll))
			if err != nil && err != zk.ErrNodeExists {
				return wrap("ensure", cp, err)
			}
		}
	}
	return nil
}

func (c *ZkClient) create(p string, v interface{}, flags int32) error {
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for %s: %w", p, err)
	}
	_, err = c.conn.Create(p, data, flags, zk.WorldACL(zk.PermAll))
	if err != nil {
		return wrap("create", p, err)
	}
	return nil
}

func (c *ZkClient) CreatePersistent(p string, v interface{}) error {
	return c.create(p, v, 0)
}

func (c *ZkClient) CreateEphemeral(p string, v interface{}) error {
	return c.create(p, v, zk.FlagEphemeral)
}

func (c *ZkClient) Read(p string, v interface{}) (bool, error) {
	data, _, err := c.conn.Get(p)
	if err == zk.ErrNoNode {
		return false, nil
	}
	if err != nil {
		return false, wrap("read", p, err)
	}
	if v == nil || len(data) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("unmarshal %s: %w", p, err)
	}
	return true, nil
}

func (c *ZkClient) Write(p string, v interface{}) error {
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for %s: %w", p, err)
	}
	_, err = c.conn.Set(p, data, -1)
	if err == zk.ErrNoNode {
		_, err = c.conn.Create(p, data, 0, zk.WorldACL(zk.PermAll))
		if err == zk.ErrNodeExists {
			_, err = c.conn.Set(p, data, -1)
		}
	}
	if err != nil {
		return wrap("write", p, err)
	}
	return nil
}

// Update is an optimistic read-modify-write loop. Conflicting writers
// make each other retry instead of clobbering.
func (c *ZkClient) Update(p string, mutate func(data []byte) ([]byte, error)) error {
	for {
		data, stat, err := c.conn.Get(p)
		if err != nil {
			return wrap("update", p, err)
		}
		out, err := mutate(data)
		if err != nil {
			return err
		}
		_, err = c.conn.Set(p, out, stat.Version)
		if err == zk.ErrBadVersion {
			continue
		}
		if err != nil {
			return wrap("update", p, err)
		}
		return nil
	}
}

func (c *ZkClient) Children(p string) ([]string, error) {
	children, _, err := c.conn.Children(p)
	if err == zk.ErrNoNode {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("children", p, err)
	}
	return children, nil
}

func (c *ZkClient) Exists(p string) (bool, error) {
	exists, _, err := c.conn.Exists(p)
	if err != nil {
		return false, wrap("exists", p, err)
	}
	return exists, nil
}

func (c *ZkClient) Delete(p string) error {
	err := c.conn.Delete(p, -1)
	if err != nil && err != zk.ErrNoNode {
		return wrap("delete", p, err)
	}
	return nil
}

func (c *ZkClient) DeleteRecursive(p string) error {
	children, _, err := c.conn.Children(p)
	if err == zk.ErrNoNode {
		return nil
	}
	if err != nil {
		return wrap("delete", p, err)
	}
	for _, child := range children {
		if err := c.DeleteRecursive(path.Join(p, child)); err != nil {
			return err
		}
	}
	return c.Delete(p)
}

// SubscribeChildren arms a continuous child watch. The zookeeper watch
// primitive is one-shot, so the loop re-arms it after every event and
// after transient errors, re-reading and re-delivering the current
// state each time. Consumers therefore see at-least-once delivery and
// must treat every callback as a full snapshot.
func (c *ZkClient) SubscribeChildren(p string, l ChildListener) (*Subscription, error) {
	sub := newSubscription()
	go func() {
		defer close(sub.done)
		for !sub.cancelled() {
			children, _, ch, err := c.conn.ChildrenW(p)
			if err == zk.ErrNoNode {
				if !c.waitForNode(p, sub) {
					return
				}
				continue
			}
			if err != nil {
				common.Log().Warn("child watch error, retrying",
					zap.String("path", p), zap.Error(err))
				if !sleepOrStop(sub, retryDelay) {
					return
				}
				continue
			}
			l(p, children)
			select {
			case <-sub.stop:
				return
			case <-ch:
			}
		}
	}()
	return sub, nil
}

// SubscribeData behaves like SubscribeChildren for znode content.
// Deletion is reported with exists=false, after which the loop waits
// for the znode to reappear.
func (c *ZkClient) SubscribeData(p string, l DataListener) (*Subscription, error) {
	sub := newSubscription()
	go func() {
		defer close(sub.done)
		for !sub.cancelled() {
			data, _, ch, err := c.conn.GetW(p)
			if err == zk.ErrNoNode {
				l(p, nil, false)
				if !c.waitForNode(p, sub) {
					return
				}
				continue
			}
			if err != nil {
				common.Log().Warn("data watch error, retrying",
					zap.String("path", p), zap.Error(err))
				if !sleepOrStop(sub, retryDelay) {
					return
				}
				continue
			}
			l(p, data, true)
			select {
			case <-sub.stop:
				return
			case <-ch:
			}
		}
	}()
	return sub, nil
}

// waitForNode blocks until p exists or the subscription is cancelled.
func (c *ZkClient) waitForNode(p string, sub *Subscription) bool {
	for {
		exists, _, ch, err := c.conn.ExistsW(p)
		if err != nil {
			if !sleepOrStop(sub, retryDelay) {
				return false
			}
			continue
		}
		if exists {
			return true
		}
		select {
		case <-sub.stop:
			return false
		case <-ch:
		}
	}
}

func sleepOrStop(sub *Subscription, d time.Duration) bool {
	select {
	case <-sub.stop:
		return false
	case <-time.After(d):
		return true
	}
}
