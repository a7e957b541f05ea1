package zkclient

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/kattaio/katta/common"
)

// MemoryStore is an in-process implementation of the store tree. Tests
// use it to run masters, nodes and clients against one shared tree
// without a zookeeper ensemble; session expiry and connection loss are
// triggered explicitly instead of waiting for timeouts.
type MemoryStore struct {
	mu    sync.Mutex
	nodes map[string]*memNode
	subs  map[*memSub]struct{}
}

type memNode struct {
	data  []byte
	owner *MemorySession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: map[string]*memNode{"/": {}},
		subs:  map[*memSub]struct{}{},
	}
}

// Session opens a logical client session on the shared tree.
func (m *MemoryStore) Session() *MemorySession {
	return &MemorySession{store: m}
}

// MemorySession implements Store. Ephemeral znodes it creates vanish
// when the session is expired or closed.
type MemorySession struct {
	store *MemoryStore

	mu        sync.Mutex
	listeners []SessionListener
	subs      []*memSub
	dead      bool
}

var _ Store = (*MemorySession)(nil)

type memSub struct {
	sub      *Subscription
	path     string
	children bool
	child    ChildListener
	data     DataListener

	qmu   sync.Mutex
	queue []func()
	wake  chan struct{}
}

func (s *memSub) enqueue(f func()) {
	s.qmu.Lock()
	s.queue = append(s.queue, f)
	s.qmu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *memSub) loop() {
	defer close(s.sub.done)
	for {
		select {
		case <-s.sub.stop:
			return
		case <-s.wake:
		}
		for {
			s.qmu.Lock()
			if len(s.queue) == 0 {
				s.qmu.Unlock()
				break
			}
			f := s.queue[0]
			s.queue = s.queue[1:]
			s.qmu.Unlock()
			if s.sub.cancelled() {
				return
			}
			f()
		}
	}
}

func (m *MemoryStore) childrenLocked(p string) []string {
	var out []string
	for k := range m.nodes {
		if k != "/" && path.Dir(k) == p {
			out = append(out, path.Base(k))
		}
	}
	sort.Strings(out)
	return out
}

// notifyLocked schedules deliveries for every subscription touched by a
// mutation of p. Snapshots are taken under the store lock so every
// subscriber observes a consistent state.
func (m *MemoryStore) notifyLocked(p string) {
	parent := path.Dir(p)
	for s := range m.subs {
		s := s
		switch {
		case s.children && (s.path == parent || s.path == p):
			children := m.childrenLocked(s.path)
			sp := s.path
			s.enqueue(func() { s.child(sp, children) })
		case !s.children && s.path == p:
			n, ok := m.nodes[p]
			var data []byte
			if ok {
				data = append([]byte(nil), n.data...)
			}
			sp := s.path
			s.enqueue(func() { s.data(sp, data, ok) })
		}
	}
}

func (c *MemorySession) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return fmt.Errorf("session closed: %w", common.ErrStoreUnavailable)
	}
	return nil
}

func (c *MemorySession) EnsurePath(p string) error {
	if err := c.check(); err != nil {
		return err
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := "/"
	for _, d := range strings.Split(p, "/") {
		if d == "" {
			continue
		}
		cp = path.Join(cp, d)
		if _, ok := m.nodes[cp]; !ok {
			m.nodes[cp] = &memNode{}
			m.notifyLocked(cp)
		}
	}
	return nil
}

func (c *MemorySession) create(p string, v interface{}, owner *MemorySession) error {
	if err := c.check(); err != nil {
		return err
	}
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for %s: %w", p, err)
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[path.Dir(p)]; !ok {
		return fmt.Errorf("create %s: no parent", p)
	}
	if _, ok := m.nodes[p]; ok {
		return fmt.Errorf("create %s: node exists", p)
	}
	m.nodes[p] = &memNode{data: data, owner: owner}
	m.notifyLocked(p)
	return nil
}

func (c *MemorySession) CreatePersistent(p string, v interface{}) error {
	return c.create(p, v, nil)
}

func (c *MemorySession) CreateEphemeral(p string, v interface{}) error {
	return c.create(p, v, c)
}

func (c *MemorySession) Read(p string, v interface{}) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	m := c.store
	m.mu.Lock()
	n, ok := m.nodes[p]
	var data []byte
	if ok {
		data = append([]byte(nil), n.data...)
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if v == nil || len(data) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("unmarshal %s: %w", p, err)
	}
	return true, nil
}

func (c *MemorySession) Write(p string, v interface{}) error {
	if err := c.check(); err != nil {
		return err
	}
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for %s: %w", p, err)
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[p]; ok {
		n.data = data
	} else {
		if _, ok := m.nodes[path.Dir(p)]; !ok {
			return fmt.Errorf("write %s: no parent", p)
		}
		m.nodes[p] = &memNode{data: data}
	}
	m.notifyLocked(p)
	return nil
}

func (c *MemorySession) Update(p string, mutate func(data []byte) ([]byte, error)) error {
	if err := c.check(); err != nil {
		return err
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[p]
	if !ok {
		return fmt.Errorf("update %s: no node", p)
	}
	out, err := mutate(append([]byte(nil), n.data...))
	if err != nil {
		return err
	}
	n.data = out
	m.notifyLocked(p)
	return nil
}

func (c *MemorySession) Children(p string) ([]string, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[p]; !ok {
		return nil, nil
	}
	return m.childrenLocked(p), nil
}

func (c *MemorySession) Exists(p string) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[p]
	return ok, nil
}

func (c *MemorySession) Delete(p string) error {
	if err := c.check(); err != nil {
		return err
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(p)
	return nil
}

func (m *MemoryStore) deleteLocked(p string) {
	if _, ok := m.nodes[p]; !ok {
		return
	}
	delete(m.nodes, p)
	m.notifyLocked(p)
}

func (c *MemorySession) DeleteRecursive(p string) error {
	if err := c.check(); err != nil {
		return err
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteRecursiveLocked(p)
	return nil
}

func (m *MemoryStore) deleteRecursiveLocked(p string) {
	for _, child := range m.childrenLocked(p) {
		m.deleteRecursiveLocked(path.Join(p, child))
	}
	m.deleteLocked(p)
}

func (c *MemorySession) subscribe(s *memSub) *Subscription {
	m := c.store
	m.mu.Lock()
	m.subs[s] = struct{}{}
	// initial snapshot
	if s.children {
		children := m.childrenLocked(s.path)
		s.enqueue(func() { s.child(s.path, children) })
	} else {
		n, ok := m.nodes[s.path]
		var data []byte
		if ok {
			data = append([]byte(nil), n.data...)
		}
		s.enqueue(func() { s.data(s.path, data, ok) })
	}
	m.mu.Unlock()
	c.mu.Lock()
	c.subs = append(c.subs, s)
	c.mu.Unlock()
	go s.loop()
	return s.sub
}

func (c *MemorySession) SubscribeChildren(p string, l ChildListener) (*Subscription, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	s := &memSub{sub: newSubscription(), path: p, children: true, child: l, wake: make(chan struct{}, 1)}
	return c.subscribe(s), nil
}

func (c *MemorySession) SubscribeData(p string, l DataListener) (*Subscription, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	s := &memSub{sub: newSubscription(), path: p, data: l, wake: make(chan struct{}, 1)}
	return c.subscribe(s), nil
}

func (c *MemorySession) SubscribeSession(l SessionListener) *Subscription {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
	return newSubscription()
}

func (c *MemorySession) Close() {
	c.terminate()
}

// Expire simulates session expiry: ephemerals vanish, subscriptions
// stop, listeners hear a final disconnect.
func (c *MemorySession) Expire() {
	for _, l := range c.snapshotListeners() {
		l(false)
	}
	c.terminate()
}

// Disconnect and Reconnect simulate a connection blip without losing
// the session. Reconnect re-delivers current snapshots to this
// session's subscriptions, matching at-least-once behaviour of the
// real client.
func (c *MemorySession) Disconnect() {
	for _, l := range c.snapshotListeners() {
		l(false)
	}
}

func (c *MemorySession) Reconnect() {
	for _, l := range c.snapshotListeners() {
		l(true)
	}
	m := c.store
	c.mu.Lock()
	subs := append([]*memSub(nil), c.subs...)
	c.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range subs {
		s := s
		if s.children {
			children := m.childrenLocked(s.path)
			s.enqueue(func() { s.child(s.path, children) })
		} else {
			n, ok := m.nodes[s.path]
			var data []byte
			if ok {
				data = append([]byte(nil), n.data...)
			}
			s.enqueue(func() { s.data(s.path, data, ok) })
		}
	}
}

func (c *MemorySession) snapshotListeners() []SessionListener {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SessionListener(nil), c.listeners...)
}

func (c *MemorySession) terminate() {
	c.mu.Lock()
	if c.dead {
		c.mu.Unlock()
		return
	}
	c.dead = true
	subs := append([]*memSub(nil), c.subs...)
	c.mu.Unlock()

	m := c.store
	m.mu.Lock()
	for _, s := range subs {
		delete(m.subs, s)
	}
	var owned []string
	for p, n := range m.nodes {
		if n.owner == c {
			owned = append(owned, p)
		}
	}
	for _, p := range owned {
		m.deleteLocked(p)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s.sub.Cancel()
	}
}
