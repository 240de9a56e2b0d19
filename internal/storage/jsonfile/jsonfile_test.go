package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

func openStores(t *testing.T) (*Stores, storage.Config) {
	t.Helper()
	cfg := storage.DefaultConfig(t.TempDir())
	stores, err := Open(cfg)
	if err != nil {
		t.Fatalf("failed to open stores: %v", err)
	}
	return stores, cfg
}

func mustUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := models.NewUser(username, "supersecret")
	if err != nil {
		t.Fatalf("NewUser failed: %v", err)
	}
	return user
}

func TestSaveLoadRoundTrip(t *testing.T) {
	stores, _ := openStores(t)
	ctx := context.Background()

	t.Run("user", func(t *testing.T) {
		user := mustUser(t, "alice")
		user.AddGroup("flat")
		if err := stores.Users.Save(ctx, "alice", user); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := stores.Users.Load(ctx, "alice")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if !reflect.DeepEqual(got, user) {
			t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, user)
		}
	})

	t.Run("group", func(t *testing.T) {
		group, err := models.NewUserGroup("flat", "alice")
		if err != nil {
			t.Fatalf("NewUserGroup failed: %v", err)
		}
		if err := stores.Groups.Save(ctx, "flat", group); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := stores.Groups.Load(ctx, "flat")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if !reflect.DeepEqual(got, group) {
			t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, group)
		}
	})

	t.Run("todolist", func(t *testing.T) {
		list := models.NewToDoList()
		task, err := models.NewTask("buy milk")
		if err != nil {
			t.Fatalf("NewTask failed: %v", err)
		}
		if err := task.SetPriority(models.PriorityHigh); err != nil {
			t.Fatalf("SetPriority failed: %v", err)
		}
		list.AddTask(*task)
		if err := stores.UserToDoLists.Save(ctx, "alice", list); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := stores.UserToDoLists.Load(ctx, "alice")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if !reflect.DeepEqual(got, list) {
			t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, list)
		}
	})

	t.Run("expense", func(t *testing.T) {
		expense, err := models.NewExpense("Dinner", 90, "alice", []string{"alice", "bob", "carol"})
		if err != nil {
			t.Fatalf("NewExpense failed: %v", err)
		}
		if err := stores.Expenses.Save(ctx, "e1", expense); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := stores.Expenses.Load(ctx, "e1")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if !reflect.DeepEqual(got, expense) {
			t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, expense)
		}
	})

	t.Run("chat", func(t *testing.T) {
		chat := models.NewGroupChat()
		if _, err := chat.Append("alice", "hello"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := stores.Chats.Save(ctx, "flat", chat); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := stores.Chats.Load(ctx, "flat")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(got.Messages) != 1 || got.Messages[0].Text != "hello" {
			t.Errorf("round trip mismatch: %+v", got.Messages)
		}
		if !got.Messages[0].Timestamp.Equal(chat.Messages[0].Timestamp) {
			t.Errorf("timestamp changed in round trip")
		}
	})
}

func TestCreate(t *testing.T) {
	stores, _ := openStores(t)
	ctx := context.Background()

	first := mustUser(t, "alice")
	if err := stores.Users.Create(ctx, "alice", first); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	second := mustUser(t, "alice")
	second.AddGroup("other")
	err := stores.Users.Create(ctx, "alice", second)
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// The failed create must not have mutated the stored document.
	got, err := stores.Users.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(got, first) {
		t.Errorf("document mutated by failed create:\ngot  %+v\nwant %+v", got, first)
	}
}

func TestExistsAndDelete(t *testing.T) {
	stores, _ := openStores(t)
	ctx := context.Background()

	ok, err := stores.Users.Exists(ctx, "alice")
	if err != nil || ok {
		t.Fatalf("Exists on absent key = (%v, %v), want (false, nil)", ok, err)
	}

	// Delete of an absent key is a no-op, not an error.
	if err := stores.Users.Delete(ctx, "alice"); err != nil {
		t.Fatalf("delete of absent key failed: %v", err)
	}

	if err := stores.Users.Save(ctx, "alice", mustUser(t, "alice")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	ok, err = stores.Users.Exists(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("Exists after save = (%v, %v), want (true, nil)", ok, err)
	}

	if err := stores.Users.Delete(ctx, "alice"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := stores.Users.Load(ctx, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	stores, _ := openStores(t)
	ctx := context.Background()

	t.Run("user propagates NotFound", func(t *testing.T) {
		if _, err := stores.Users.Load(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("user todolist propagates NotFound", func(t *testing.T) {
		if _, err := stores.UserToDoLists.Load(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("group todolist recovers to empty", func(t *testing.T) {
		list, err := stores.GroupToDoLists.Load(ctx, "ghost")
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if len(list.Tasks) != 0 {
			t.Errorf("expected empty list, got %+v", list)
		}
	})

	t.Run("chat recovers to empty", func(t *testing.T) {
		chat, err := stores.Chats.Load(ctx, "ghost")
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if len(chat.Messages) != 0 {
			t.Errorf("expected empty chat, got %+v", chat)
		}
	})

	t.Run("group expense index recovers to empty", func(t *testing.T) {
		index, err := stores.GroupExpenses.Load(ctx, "ghost")
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if len(index.Expenses) != 0 {
			t.Errorf("expected empty index, got %+v", index)
		}
	})
}

func TestLoadCorrupted(t *testing.T) {
	stores, cfg := openStores(t)
	ctx := context.Background()
	garbage := []byte("{not json")

	t.Run("user propagates Corrupted", func(t *testing.T) {
		path := filepath.Join(cfg.UsersRoot, "alice.json")
		if err := os.WriteFile(path, garbage, 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if _, err := stores.Users.Load(ctx, "alice"); !errors.Is(err, storage.ErrCorrupted) {
			t.Errorf("expected ErrCorrupted, got %v", err)
		}
	})

	t.Run("group todolist recovers to empty", func(t *testing.T) {
		path := filepath.Join(cfg.GroupToDoListsRoot, "flat.json")
		if err := os.WriteFile(path, garbage, 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		list, err := stores.GroupToDoLists.Load(ctx, "flat")
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if len(list.Tasks) != 0 {
			t.Errorf("expected empty list, got %+v", list)
		}
	})

	t.Run("chat recovers to empty", func(t *testing.T) {
		path := filepath.Join(cfg.ChatRoot, "flat.json")
		if err := os.WriteFile(path, garbage, 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		chat, err := stores.Chats.Load(ctx, "flat")
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if len(chat.Messages) != 0 {
			t.Errorf("expected empty chat, got %+v", chat)
		}
	})
}

func TestInvalidKeys(t *testing.T) {
	stores, _ := openStores(t)
	ctx := context.Background()

	for _, key := range []string{"", "a/b", `a\b`, "../escape"} {
		if _, err := stores.Users.Load(ctx, key); !errors.Is(err, models.ErrInvalidArgument) {
			t.Errorf("Load(%q): expected ErrInvalidArgument, got %v", key, err)
		}
		if err := stores.Users.Save(ctx, key, mustUser(t, "alice")); !errors.Is(err, models.ErrInvalidArgument) {
			t.Errorf("Save(%q): expected ErrInvalidArgument, got %v", key, err)
		}
	}
}

func TestKeys(t *testing.T) {
	stores, _ := openStores(t)
	ctx := context.Background()

	keys, err := stores.Users.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}

	for _, name := range []string{"carol", "alice", "bobby"} {
		if err := stores.Users.Save(ctx, name, mustUser(t, name)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	keys, err = stores.Users.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	want := []string{"alice", "bobby", "carol"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}
