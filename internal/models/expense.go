package models

import (
	"fmt"
	"strings"
)

// Settlement records whether one participant has paid their share of an
// expense back to the payer.
type Settlement struct {
	Username  string `json:"username"`
	IsSettled bool   `json:"isSettled"`
}

// Expense is a shared cost paid up-front by one member and split equally
// across all participants, payer included. Settlements carry exactly one
// entry per participant other than the payer; the payer is implicitly
// always settled and never appears there.
type Expense struct {
	Description  string       `json:"description"`
	Amount       float64      `json:"amount"`
	PaidBy       string       `json:"paidBy"`
	Participants []string     `json:"participants"`
	Settlements  []Settlement `json:"settlements"`
}

// NewExpense constructs an expense and derives its settlement set: one
// unsettled entry per non-payer participant, in participant order.
func NewExpense(description string, amount float64, paidBy string, participants []string) (*Expense, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: expense description must not be blank", ErrInvalidArgument)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: expense amount must be positive, got %v", ErrInvalidArgument, amount)
	}
	if paidBy == "" {
		return nil, fmt.Errorf("%w: payer is required", ErrInvalidArgument)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: expense needs at least one participant", ErrInvalidArgument)
	}

	settlements := make([]Settlement, 0, len(participants))
	for _, p := range participants {
		if p == paidBy {
			continue
		}
		settlements = append(settlements, Settlement{Username: p})
	}

	return &Expense{
		Description:  description,
		Amount:       amount,
		PaidBy:       paidBy,
		Participants: participants,
		Settlements:  settlements,
	}, nil
}

// SharePerPerson returns the equal split of the amount across all
// participants, payer included. A decoded document with no participants
// yields 0 rather than dividing by zero; constructors never produce one.
func (e *Expense) SharePerPerson() float64 {
	if len(e.Participants) == 0 {
		return 0
	}
	return e.Amount / float64(len(e.Participants))
}

// SettleParticipant marks the named participant's share as paid. It is a
// no-op for a username with no settlement entry, which includes the payer.
func (e *Expense) SettleParticipant(username string) {
	for i := range e.Settlements {
		if e.Settlements[i].Username == username {
			e.Settlements[i].IsSettled = true
			return
		}
	}
}

// HasParticipantSettled reports whether the named user owes nothing on this
// expense. The payer is always settled; so is any username with no
// settlement entry, since nothing was owed in the first place.
func (e *Expense) HasParticipantSettled(username string) bool {
	if username == e.PaidBy {
		return true
	}
	for _, s := range e.Settlements {
		if s.Username == username {
			return s.IsSettled
		}
	}
	return true
}

// IsFullySettled reports whether every settlement entry is paid. An expense
// with no non-payer participants is vacuously settled.
func (e *Expense) IsFullySettled() bool {
	for _, s := range e.Settlements {
		if !s.IsSettled {
			return false
		}
	}
	return true
}

// ExpenseIndex lists the expense document keys recorded for one group. It
// keeps group expense lookup strictly by primary key: the index is itself a
// document keyed by group name.
type ExpenseIndex struct {
	Expenses []string `json:"expenses"`
}

// NewExpenseIndex returns an empty index.
func NewExpenseIndex() *ExpenseIndex {
	return &ExpenseIndex{Expenses: []string{}}
}

// Add appends an expense key to the index. Duplicate keys are ignored.
func (x *ExpenseIndex) Add(key string) {
	for _, k := range x.Expenses {
		if k == key {
			return
		}
	}
	x.Expenses = append(x.Expenses, key)
}
