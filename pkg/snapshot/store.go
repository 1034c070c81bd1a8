package snapshot

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vango-dev/treepatch/internal/errors"
)

// Snapshot is a stored tree.
type Snapshot struct {
	Key     string
	Markup  []byte
	Seq     uint64
	Created time.Time
}

// Store is the interface for snapshot backends.
type Store interface {
	// Put stores s under s.Key, replacing any previous snapshot.
	Put(ctx context.Context, s *Snapshot) error

	// Get returns the snapshot stored under key. A missing key yields an
	// error matching errors.ErrNotFound.
	Get(ctx context.Context, key string) (*Snapshot, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys with the given prefix in sorted order.
	List(ctx context.Context, prefix string) ([]string, error)
}

var validate = validator.New()

// ValidateKey checks that key can be used with every backend.
func ValidateKey(key string) error {
	if err := validate.Var(key, "required,max=256,printascii"); err != nil {
		return errors.New(errors.CodeStorage).
			WithDetail("snapshot keys are 1-256 printable ASCII characters: " + err.Error())
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return errors.New(errors.CodeStorage).
			WithDetail("snapshot keys must be relative and must not contain \"..\"")
	}
	return nil
}

func notFound(key string) error {
	return errors.New(errors.CodeNotFound).WithDetail("key " + key)
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Snapshot
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Snapshot), now: time.Now}
}

func (m *MemoryStore) Put(ctx context.Context, s *Snapshot) error {
	if err := ValidateKey(s.Key); err != nil {
		return err
	}
	stored := *s
	stored.Markup = slices.Clone(s.Markup)
	if stored.Created.IsZero() {
		stored.Created = m.now().UTC()
	}

	m.mu.Lock()
	m.items[s.Key] = stored
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Snapshot, error) {
	m.mu.RLock()
	s, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(key)
	}
	s.Markup = slices.Clone(s.Markup)
	return &s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
