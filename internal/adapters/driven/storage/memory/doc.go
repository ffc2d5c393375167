// Package memory provides in-memory implementations of the storage
// ports. They are used as test doubles and for ephemeral workspaces
// where persistence is not wanted.
//
// The stores enforce the same history guards as the SQLite adapter:
// optimistic head checks on commit insert and at-most-one-commit-per-
// signal on linking.
package memory
