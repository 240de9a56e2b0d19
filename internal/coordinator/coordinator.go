// Package coordinator orchestrates operations that span more than one
// entity store and defines the partial-failure contract for multi-file
// writes, which have no transaction to lean on.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// Rejection reasons returned by ValidateAssignment.
const (
	ReasonUserNotFound  = "user does not exist"
	ReasonGroupNotFound = "group does not exist"
	ReasonAlreadyMember = "user is already a member"
)

// PartialError reports a composite operation that failed after one or more
// writes had already persisted. Completed names the steps that are on disk;
// callers can inspect it to decide whether to compensate. The coordinator
// itself never rolls back.
type PartialError struct {
	Op        string
	Completed []string
	Failed    string
	Cause     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s: step %q failed after %v: %v", e.Op, e.Failed, e.Completed, e.Cause)
}

func (e *PartialError) Unwrap() error { return e.Cause }

// Coordinator sequences writes across stores for the composite operations.
// Steps run in a fixed order; a failure part-way through surfaces as a
// *PartialError and leaves the earlier writes in place.
type Coordinator struct {
	users          storage.UserStore
	groups         storage.GroupStore
	userToDoLists  storage.ToDoListStore
	groupToDoLists storage.ToDoListStore
	expenses       storage.ExpenseStore
	groupExpenses  storage.ExpenseIndexStore
}

// New wires a coordinator over the given stores.
func New(
	users storage.UserStore,
	groups storage.GroupStore,
	userToDoLists storage.ToDoListStore,
	groupToDoLists storage.ToDoListStore,
	expenses storage.ExpenseStore,
	groupExpenses storage.ExpenseIndexStore,
) *Coordinator {
	return &Coordinator{
		users:          users,
		groups:         groups,
		userToDoLists:  userToDoLists,
		groupToDoLists: groupToDoLists,
		expenses:       expenses,
		groupExpenses:  groupExpenses,
	}
}

// RegisterUser persists a new user record together with their empty to-do
// list. The user document is the identity record and goes first; a lost
// to-do write leaves a user whose list reads as missing until recreated.
func (c *Coordinator) RegisterUser(ctx context.Context, user *models.User) error {
	slog.Info("registering user", "username", user.Username)

	if err := c.users.Create(ctx, user.Username, user); err != nil {
		return err
	}
	if err := c.userToDoLists.Save(ctx, user.Username, models.NewToDoList()); err != nil {
		return &PartialError{
			Op:        "RegisterUser",
			Completed: []string{"user"},
			Failed:    "user todolist",
			Cause:     err,
		}
	}

	slog.Info("user registered", "username", user.Username)
	return nil
}

// CreateGroup creates the group record with the creating user as its only
// member, its empty to-do list, and records the membership on the user.
//
// Writes happen in that order with no rollback. If the to-do write is lost
// after the group document persisted, the group's list simply reads back
// as empty (the group to-do store recovers on missing documents), so the
// partial state heals on read rather than through compensation.
func (c *Coordinator) CreateGroup(ctx context.Context, user *models.User, groupName string) error {
	slog.Info("creating group", "group", groupName, "creator", user.Username)

	group, err := models.NewUserGroup(groupName, user.Username)
	if err != nil {
		return err
	}

	if err := c.groups.Create(ctx, groupName, group); err != nil {
		return err
	}
	if err := c.groupToDoLists.Save(ctx, groupName, models.NewToDoList()); err != nil {
		return &PartialError{
			Op:        "CreateGroup",
			Completed: []string{"group"},
			Failed:    "group todolist",
			Cause:     err,
		}
	}

	user.AddGroup(groupName)
	if err := c.users.Save(ctx, user.Username, user); err != nil {
		return &PartialError{
			Op:        "CreateGroup",
			Completed: []string{"group", "group todolist"},
			Failed:    "user membership",
			Cause:     err,
		}
	}

	slog.Info("group created", "group", groupName, "creator", user.Username)
	return nil
}

// AssignUserToGroup adds the user to the group's member list and the group
// to the user's membership list, persisting the group first. Adding a user
// who is already a member fails with models.ErrDuplicateMember before
// anything is written; the user-side addition is idempotent.
func (c *Coordinator) AssignUserToGroup(ctx context.Context, user *models.User, groupName string) error {
	slog.Info("assigning user to group", "group", groupName, "username", user.Username)

	group, err := c.groups.Load(ctx, groupName)
	if err != nil {
		return err
	}
	if err := group.AddMember(user.Username); err != nil {
		return err
	}
	user.AddGroup(groupName)

	if err := c.groups.Save(ctx, groupName, group); err != nil {
		return err
	}
	if err := c.users.Save(ctx, user.Username, user); err != nil {
		return &PartialError{
			Op:        "AssignUserToGroup",
			Completed: []string{"group membership"},
			Failed:    "user membership",
			Cause:     err,
		}
	}

	slog.Info("user assigned to group", "group", groupName, "username", user.Username)
	return nil
}

// ValidateAssignment pre-checks an assignment without mutating anything.
// It returns a human-readable rejection reason, or "" when the assignment
// would succeed. The error return is reserved for storage failures.
func (c *Coordinator) ValidateAssignment(ctx context.Context, username, groupName string) (string, error) {
	ok, err := c.users.Exists(ctx, username)
	if err != nil {
		return "", err
	}
	if !ok {
		return ReasonUserNotFound, nil
	}

	group, err := c.groups.Load(ctx, groupName)
	if errors.Is(err, storage.ErrNotFound) {
		return ReasonGroupNotFound, nil
	}
	if err != nil {
		return "", err
	}
	if group.HasMember(username) {
		return ReasonAlreadyMember, nil
	}
	return "", nil
}

// RemoveUser deletes the user document only. Group member lists and owned
// to-do lists or expenses are not cascaded; references to the deleted
// username may remain and are treated as orphans by readers.
func (c *Coordinator) RemoveUser(ctx context.Context, username string) error {
	slog.Info("removing user", "username", username)
	return c.users.Delete(ctx, username)
}

// AddGroupExpense persists a new expense document under a generated key
// and records that key in the group's expense index. The group must exist.
// A lost index write leaves an expense document unreferenced by the group;
// the index heals on the next successful append, never by rollback.
func (c *Coordinator) AddGroupExpense(ctx context.Context, groupName string, expense *models.Expense) (string, error) {
	slog.Info("adding group expense", "group", groupName, "description", expense.Description)

	ok, err := c.groups.Exists(ctx, groupName)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: group %s", storage.ErrNotFound, groupName)
	}

	key := uuid.New().String()
	if err := c.expenses.Create(ctx, key, expense); err != nil {
		return "", err
	}

	index, err := c.groupExpenses.Load(ctx, groupName)
	if err != nil {
		return key, &PartialError{
			Op:        "AddGroupExpense",
			Completed: []string{"expense"},
			Failed:    "group expense index",
			Cause:     err,
		}
	}
	index.Add(key)
	if err := c.groupExpenses.Save(ctx, groupName, index); err != nil {
		return key, &PartialError{
			Op:        "AddGroupExpense",
			Completed: []string{"expense"},
			Failed:    "group expense index",
			Cause:     err,
		}
	}

	slog.Info("group expense added", "group", groupName, "expense_key", key)
	return key, nil
}
