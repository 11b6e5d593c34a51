// Package repository implements the engine's storage ports on gorm and in
// memory.
package repository

import "errors"

var (
	// ErrDuplicate is returned when a unique key (lead, event) already exists.
	ErrDuplicate = errors.New("duplicate key")
	// ErrNotFound is returned by writes that target a missing row, or a
	// reminder that is already sent.
	ErrNotFound = errors.New("record not found")
)
