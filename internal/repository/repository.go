// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory, cache) inside this directory.
package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("record conflicts with an existing row")
)
