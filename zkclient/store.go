// Package zkclient is the typed facade over the coordination store.
// Masters, nodes and clients never touch the raw zookeeper connection;
// they speak this interface, which hides one-shot watch re-arming and
// JSON record (de)serialization.
package zkclient

import "sync"

// ChildListener receives the full child list of the watched path. The
// first call reports the current state; later calls follow mutations.
// Calls are serial per subscription.
type ChildListener func(parent string, children []string)

// DataListener receives the current content of the watched path.
// exists is false when the znode is gone.
type DataListener func(path string, data []byte, exists bool)

// SessionListener is told about connection state transitions, once per
// transition.
type SessionListener func(connected bool)

type Store interface {
	// EnsurePath creates the path and any missing parents as
	// persistent znodes with empty content.
	EnsurePath(path string) error
	CreatePersistent(path string, v interface{}) error
	// CreateEphemeral ties the znode's lifetime to this session.
	CreateEphemeral(path string, v interface{}) error
	// Read unmarshals the znode content into v. Returns found=false
	// (and no error) when the znode does not exist. v may be nil to
	// probe content-free.
	Read(path string, v interface{}) (found bool, err error)
	// Write marshals v into the znode, creating it if necessary.
	Write(path string, v interface{}) error
	// Update applies mutate under an optimistic version check and
	// retries on conflict.
	Update(path string, mutate func(data []byte) ([]byte, error)) error
	Children(path string) ([]string, error)
	Exists(path string) (bool, error)
	Delete(path string) error
	DeleteRecursive(path string) error
	SubscribeChildren(path string, l ChildListener) (*Subscription, error)
	SubscribeData(path string, l DataListener) (*Subscription, error)
	SubscribeSession(l SessionListener) *Subscription
	Close()
}

// Subscription is a handle on a continuous watch. Cancel stops
// delivery; it does not block for in-flight callbacks.
type Subscription struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newSubscription() *Subscription {
	return &Subscription{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (s *Subscription) Cancel() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Subscription) cancelled() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}
