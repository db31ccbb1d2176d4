package store

import "sync"

const watcherBuffer = 16

// MemStore keeps every document in process memory. Safe for concurrent
// use. Snapshots delivered to subscribers are full document values, so a
// slow subscriber may observe coalesced updates but never a stale final
// state.
type MemStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	versions map[string]uint64
	watchers map[string][]*watcher
}

type watcher struct {
	ch     chan Snapshot
	closed bool
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		docs:     make(map[string][]byte),
		versions: make(map[string]uint64),
		watchers: make(map[string][]*watcher),
	}
}

func (m *MemStore) Subscribe(path string) (<-chan Snapshot, func()) {
	m.mu.Lock()
	w := &watcher{ch: make(chan Snapshot, watcherBuffer)}
	m.watchers[path] = append(m.watchers[path], w)
	w.ch <- m.snapshotLocked(path)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if w.closed {
			return
		}
		w.closed = true
		close(w.ch)
		list := m.watchers[path]
		for i, other := range list {
			if other == w {
				m.watchers[path] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(m.watchers[path]) == 0 {
			delete(m.watchers, path)
		}
	}
	return w.ch, cancel
}

func (m *MemStore) ReadOnce(path string) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(path)
}

func (m *MemStore) Write(path string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitLocked(path, value)
}

func (m *MemStore) Transact(path string, fn TxFunc) (Snapshot, error) {
	for {
		m.mu.Lock()
		current := copyBytes(m.docs[path])
		version := m.versions[path]
		m.mu.Unlock()

		next, err := fn(current)
		if err != nil {
			return Snapshot{}, err
		}

		m.mu.Lock()
		if m.versions[path] != version {
			m.mu.Unlock()
			continue
		}
		m.commitLocked(path, next)
		snap := m.snapshotLocked(path)
		m.mu.Unlock()
		return snap, nil
	}
}

func (m *MemStore) commitLocked(path string, value []byte) {
	if value == nil {
		delete(m.docs, path)
	} else {
		m.docs[path] = copyBytes(value)
	}
	m.versions[path]++

	snap := m.snapshotLocked(path)
	for _, w := range m.watchers[path] {
		select {
		case w.ch <- snap:
		default:
			// Full buffer: drop the oldest pending snapshot so the
			// subscriber still converges on the latest value.
			select {
			case <-w.ch:
			default:
			}
			w.ch <- snap
		}
	}
}

func (m *MemStore) snapshotLocked(path string) Snapshot {
	return Snapshot{Path: path, Data: copyBytes(m.docs[path])}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
