// Package storage defines the persistence contracts for hearthkeep
// entities and the error taxonomy every implementation surfaces.
package storage

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/hearthkeep/hearthkeep/internal/models"
)

var (
	// ErrNotFound means no document exists for a key where one was required.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists means a document exists for a key that had to be free.
	ErrAlreadyExists = errors.New("already exists")

	// ErrCorrupted means a document exists but could not be decoded.
	ErrCorrupted = errors.New("corrupted document")

	// ErrIO means a write, read or delete could not complete.
	ErrIO = errors.New("storage i/o failure")
)

// Store is the keyed document store contract shared by every entity kind.
//
// Save overwrites unconditionally and never fails with ErrAlreadyExists;
// Create fails with ErrAlreadyExists if the key is taken and never mutates
// the existing document; Delete of an absent key is a no-op. Load fails
// with ErrNotFound or ErrCorrupted unless the implementation's documented
// recovery policy substitutes a fresh entity instead.
//
// Operations are synchronous blocking I/O with no cross-key isolation:
// load-mutate-save sequences race against concurrent writers for the same
// key, and the last write wins.
type Store[E any] interface {
	Exists(ctx context.Context, key string) (bool, error)
	Load(ctx context.Context, key string) (E, error)
	Save(ctx context.Context, key string, entity E) error
	Create(ctx context.Context, key string, entity E) error
	Delete(ctx context.Context, key string) error

	// Keys lists every key in the namespace, sorted. This is a directory
	// listing, not a query facility.
	Keys(ctx context.Context) ([]string, error)
}

// Per-entity aliases keep call sites readable and let implementations be
// swapped without touching services.
type (
	UserStore         = Store[*models.User]
	GroupStore        = Store[*models.UserGroup]
	ToDoListStore     = Store[*models.ToDoList]
	ExpenseStore      = Store[*models.Expense]
	ExpenseIndexStore = Store[*models.ExpenseIndex]
	ChatStore         = Store[*models.GroupChat]
)

// Config carries one root directory per entity namespace. It is injected
// at construction; stores never compute paths ad hoc inside operations.
type Config struct {
	UsersRoot          string
	GroupsRoot         string
	ToDoListsRoot      string
	GroupToDoListsRoot string
	ExpensesRoot       string
	GroupExpensesRoot  string
	ChatRoot           string
}

// DefaultConfig lays the standard namespaces out under one base directory.
func DefaultConfig(baseDir string) Config {
	return Config{
		UsersRoot:          filepath.Join(baseDir, "users"),
		GroupsRoot:         filepath.Join(baseDir, "groups"),
		ToDoListsRoot:      filepath.Join(baseDir, "todolists"),
		GroupToDoListsRoot: filepath.Join(baseDir, "grouptodolists"),
		ExpensesRoot:       filepath.Join(baseDir, "expenses"),
		GroupExpensesRoot:  filepath.Join(baseDir, "groupexpenses"),
		ChatRoot:           filepath.Join(baseDir, "groupchat"),
	}
}
