// Package models defines the core domain entities for hearthkeep.
//
// # Models
//
//   - User: a registered account, keyed by username
//   - UserGroup: a named household/group of users, keyed by group name
//   - ToDoList / Task: an ordered task list owned by exactly one user or group
//   - Expense / Settlement: a shared cost split equally across participants,
//     with per-participant settlement tracking
//   - GroupChat / Message: an append-only message log per group
//
// # Design Principles
//
//  1. Entities are plain values with explicit constructors that enforce
//     their invariants; nothing here touches storage.
//  2. Relationships are carried as name strings (usernames, group names),
//     never pointers, because each entity serializes to its own document.
//  3. The JSON field names on these types are a wire contract consumed by
//     the transport layer and the stored documents; do not rename them.
package models
