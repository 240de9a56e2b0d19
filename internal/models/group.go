package models

import (
	"encoding/json"
	"fmt"
)

// UserGroup is a named group of users. The group's to-do list, expenses and
// chat live in their own documents keyed by the same group name; this record
// only carries identity and membership.
type UserGroup struct {
	GroupName string
	Users     []string
}

// NewUserGroup creates a group with the creating user as its first member.
// A group never exists without at least one member.
func NewUserGroup(groupName, creator string) (*UserGroup, error) {
	if groupName == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidArgument)
	}
	if creator == "" {
		return nil, fmt.Errorf("%w: creating user is required", ErrInvalidArgument)
	}
	return &UserGroup{
		GroupName: groupName,
		Users:     []string{creator},
	}, nil
}

// HasMember reports whether the named user belongs to the group.
func (g *UserGroup) HasMember(username string) bool {
	for _, u := range g.Users {
		if u == username {
			return true
		}
	}
	return false
}

// AddMember appends a user to the member list, preserving insertion order.
func (g *UserGroup) AddMember(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	if g.HasMember(username) {
		return fmt.Errorf("%w: %q in group %q", ErrDuplicateMember, username, g.GroupName)
	}
	g.Users = append(g.Users, username)
	return nil
}

// RemoveMember drops a user from the member list.
func (g *UserGroup) RemoveMember(username string) error {
	for i, u := range g.Users {
		if u == username {
			g.Users = append(g.Users[:i], g.Users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q in group %q", ErrAbsentMember, username, g.GroupName)
}

// groupDocument is the stored shape. numberOfUsers is derived from the
// member list at encode time and is never independently settable.
type groupDocument struct {
	GroupName     string   `json:"groupName"`
	Users         []string `json:"users"`
	NumberOfUsers int      `json:"numberOfUsers"`
}

func (g *UserGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupDocument{
		GroupName:     g.GroupName,
		Users:         g.Users,
		NumberOfUsers: len(g.Users),
	})
}

func (g *UserGroup) UnmarshalJSON(data []byte) error {
	var doc groupDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	g.GroupName = doc.GroupName
	g.Users = doc.Users
	return nil
}
