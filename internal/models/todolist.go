package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority ranks a task. The zero value means no priority was assigned.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) valid() bool {
	switch p {
	case "", PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// MarshalJSON encodes an unset priority as null, per the document contract.
func (p Priority) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON rejects unknown priority values so a document carrying one
// decodes as corrupted instead of round-tripping garbage.
func (p *Priority) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := Priority(s)
	if !v.valid() {
		return fmt.Errorf("unknown priority %q", s)
	}
	*p = v
	return nil
}

// Task is a single to-do entry.
type Task struct {
	// Name is the trimmed, non-blank task name. Tasks within one list are
	// addressed by name.
	Name string `json:"taskName"`

	// DueDate is optional; nil means no due date.
	DueDate *time.Time `json:"dateTime"`

	// Description is optional free text; nil means none was given.
	Description *string `json:"description"`

	Priority Priority `json:"priority"`

	Completed bool `json:"isCompleted"`
}

// NewTask constructs a task with the given name, trimmed. Blank names are
// rejected.
func NewTask(name string) (*Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: task name must not be blank", ErrInvalidArgument)
	}
	return &Task{Name: name}, nil
}

// SetPriority assigns a priority, rejecting values outside the enum.
// The empty priority clears it.
func (t *Task) SetPriority(p Priority) error {
	if !p.valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, p)
	}
	t.Priority = p
	return nil
}

// SetDueDate assigns an optional due date; nil clears it.
func (t *Task) SetDueDate(due *time.Time) {
	t.DueDate = due
}

// SetDescription assigns an optional description; nil clears it.
func (t *Task) SetDescription(desc *string) {
	t.Description = desc
}

// ToDoList is an ordered list of tasks. A list is owned by exactly one user
// or one group, identified by the key its document is stored under.
type ToDoList struct {
	Tasks []Task `json:"tasks"`
}

// NewToDoList returns an empty list.
func NewToDoList() *ToDoList {
	return &ToDoList{Tasks: []Task{}}
}

// AddTask appends a task to the list.
func (l *ToDoList) AddTask(t Task) {
	l.Tasks = append(l.Tasks, t)
}

// Task returns the first task with the given name.
func (l *ToDoList) Task(name string) (*Task, bool) {
	for i := range l.Tasks {
		if l.Tasks[i].Name == name {
			return &l.Tasks[i], true
		}
	}
	return nil, false
}

// CompleteTask marks the named task completed, reporting whether it exists.
func (l *ToDoList) CompleteTask(name string) bool {
	t, ok := l.Task(name)
	if !ok {
		return false
	}
	t.Completed = true
	return true
}

// RemoveTask deletes the named task, reporting whether it existed.
func (l *ToDoList) RemoveTask(name string) bool {
	for i := range l.Tasks {
		if l.Tasks[i].Name == name {
			l.Tasks = append(l.Tasks[:i], l.Tasks[i+1:]...)
			return true
		}
	}
	return false
}
