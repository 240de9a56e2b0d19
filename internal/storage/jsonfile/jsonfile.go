// Package jsonfile implements the storage contracts as one JSON document
// per key, stored as <key>.json under a namespace root directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// Ensure Repository implements the store contract.
var _ storage.UserStore = (*Repository[*models.User])(nil)

// Repository stores one entity kind under a single root directory.
//
// A per-key mutex serializes operations touching the same key within this
// process. That is an advisory strengthening only: callers composing
// load-mutate-save sequences still race with each other, and the last
// write wins, as the store contract states.
type Repository[E any] struct {
	root  string
	fresh func() E

	// recoverEmpty, when true, makes Load substitute fresh() for a missing
	// or corrupted document instead of failing. Group-scoped collection
	// entities use this; identity records never do.
	recoverEmpty bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRepository creates the namespace root and returns a repository for
// one entity kind. fresh allocates an empty entity, used both as the
// decode target and as the substitute under the recovery policy.
func NewRepository[E any](root string, fresh func() E, recoverEmpty bool) (*Repository[E], error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create namespace root %s: %w", root, err)
	}
	return &Repository[E]{
		root:         root,
		fresh:        fresh,
		recoverEmpty: recoverEmpty,
		locks:        make(map[string]*sync.Mutex),
	}, nil
}

// path validates a key and maps it to its document path. Empty keys and
// keys containing path separators are rejected rather than being allowed
// to escape the namespace root.
func (r *Repository[E]) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", models.ErrInvalidArgument)
	}
	if strings.ContainsAny(key, `/\`) || key != filepath.Base(key) {
		return "", fmt.Errorf("%w: key %q contains a path separator", models.ErrInvalidArgument, key)
	}
	return filepath.Join(r.root, key+".json"), nil
}

func (r *Repository[E]) lock(key string) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	r.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Exists reports whether a document for key is present as a regular file.
// It says nothing about whether the document is well-formed.
func (r *Repository[E]) Exists(ctx context.Context, key string) (bool, error) {
	path, err := r.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", storage.ErrIO, path, err)
	}
	return info.Mode().IsRegular(), nil
}

// Load reads and decodes the document for key.
func (r *Repository[E]) Load(ctx context.Context, key string) (E, error) {
	var zero E
	path, err := r.path(key)
	if err != nil {
		return zero, err
	}

	unlock := r.lock(key)
	defer unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if r.recoverEmpty {
			return r.fresh(), nil
		}
		return zero, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return zero, fmt.Errorf("%w: read %s: %v", storage.ErrIO, path, err)
	}

	entity := r.fresh()
	if err := json.Unmarshal(data, entity); err != nil {
		if r.recoverEmpty {
			return r.fresh(), nil
		}
		return zero, fmt.Errorf("%w: decode %s: %v", storage.ErrCorrupted, key, err)
	}
	return entity, nil
}

// Save writes the document for key, overwriting any existing one.
func (r *Repository[E]) Save(ctx context.Context, key string, entity E) error {
	path, err := r.path(key)
	if err != nil {
		return err
	}

	unlock := r.lock(key)
	defer unlock()

	return r.write(path, entity)
}

// Create writes the document for key, failing if one already exists. The
// existing document is never touched on failure.
func (r *Repository[E]) Create(ctx context.Context, key string, entity E) error {
	path, err := r.path(key)
	if err != nil {
		return err
	}

	unlock := r.lock(key)
	defer unlock()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, key)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %v", storage.ErrIO, path, err)
	}

	return r.write(path, entity)
}

// Delete removes the document for key. A missing document is a no-op.
func (r *Repository[E]) Delete(ctx context.Context, key string) error {
	path, err := r.path(key)
	if err != nil {
		return err
	}

	unlock := r.lock(key)
	defer unlock()

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: remove %s: %v", storage.ErrIO, path, err)
	}
	return nil
}

// Keys lists every key in the namespace, sorted.
func (r *Repository[E]) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", storage.ErrIO, r.root, err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Repository[E]) write(path string, entity E) error {
	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", storage.ErrIO, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", storage.ErrIO, path, err)
	}
	return nil
}
