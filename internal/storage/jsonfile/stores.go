package jsonfile

import (
	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// Stores bundles one repository per entity namespace, wired from a single
// storage.Config. Construct it once per process and pass it down.
type Stores struct {
	Users          storage.UserStore
	Groups         storage.GroupStore
	UserToDoLists  storage.ToDoListStore
	GroupToDoLists storage.ToDoListStore
	Expenses       storage.ExpenseStore
	GroupExpenses  storage.ExpenseIndexStore
	Chats          storage.ChatStore
}

// Open creates every namespace root and returns the full store set.
//
// Recovery policy, held uniformly per entity kind: group to-do lists,
// group chats and group expense indexes heal to an empty entity when their
// document is missing or corrupted, since groups acquire these documents
// lazily. Users, user to-do lists, groups and expenses propagate the
// failure, since a missing record there is always a caller error.
func Open(cfg storage.Config) (*Stores, error) {
	users, err := NewRepository(cfg.UsersRoot, func() *models.User { return &models.User{} }, false)
	if err != nil {
		return nil, err
	}
	groups, err := NewRepository(cfg.GroupsRoot, func() *models.UserGroup { return &models.UserGroup{} }, false)
	if err != nil {
		return nil, err
	}
	userToDoLists, err := NewRepository(cfg.ToDoListsRoot, models.NewToDoList, false)
	if err != nil {
		return nil, err
	}
	groupToDoLists, err := NewRepository(cfg.GroupToDoListsRoot, models.NewToDoList, true)
	if err != nil {
		return nil, err
	}
	expenses, err := NewRepository(cfg.ExpensesRoot, func() *models.Expense { return &models.Expense{} }, false)
	if err != nil {
		return nil, err
	}
	groupExpenses, err := NewRepository(cfg.GroupExpensesRoot, models.NewExpenseIndex, true)
	if err != nil {
		return nil, err
	}
	chats, err := NewRepository(cfg.ChatRoot, models.NewGroupChat, true)
	if err != nil {
		return nil, err
	}

	return &Stores{
		Users:          users,
		Groups:         groups,
		UserToDoLists:  userToDoLists,
		GroupToDoLists: groupToDoLists,
		Expenses:       expenses,
		GroupExpenses:  groupExpenses,
		Chats:          chats,
	}, nil
}
