package storage

import (
	"context"
	"sync"
)

// backing is the data shared by every MemoryStore tab.
type backing struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[*MemoryStore][]chan Change
}

// MemoryStore keeps values in process memory. Tabs created with Tab share the
// same data; a write through one tab is announced to the watchers of the others.
type MemoryStore struct {
	b *backing
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{b: &backing{
		data:     make(map[string][]byte),
		watchers: make(map[*MemoryStore][]chan Change),
	}}
}

// Tab returns another handle on the same data.
func (s *MemoryStore) Tab() *MemoryStore {
	return &MemoryStore{b: s.b}
}

func (s *MemoryStore) Load(key string) ([]byte, bool, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	v, ok := s.b.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Save(key string, value []byte) error {
	v := append([]byte(nil), value...)
	s.b.mu.Lock()
	s.b.data[key] = v
	s.b.mu.Unlock()
	s.broadcast(Change{Key: key, Value: v})
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.b.mu.Lock()
	_, existed := s.b.data[key]
	delete(s.b.data, key)
	s.b.mu.Unlock()
	if existed {
		s.broadcast(Change{Key: key})
	}
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)
	s.b.mu.Lock()
	s.b.watchers[s] = append(s.b.watchers[s], ch)
	s.b.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		list := s.b.watchers[s]
		for i, c := range list {
			if c == ch {
				s.b.watchers[s] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(s.b.watchers[s]) == 0 {
			delete(s.b.watchers, s)
		}
		close(ch)
	}()
	return ch
}

// broadcast delivers c to every other tab. Slow watchers lose events rather
// than block the writer.
func (s *MemoryStore) broadcast(c Change) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()
	for tab, chans := range s.b.watchers {
		if tab == s {
			continue
		}
		for _, ch := range chans {
			select {
			case ch <- c:
			default:
			}
		}
	}
}
