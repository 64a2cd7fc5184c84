// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNotFound covers both a missing note and a note owned by
// someone else, so a delete attempt leaks nothing about other users'
// notes, while ErrUserExists signals a signup collision.
package repository

import "errors"

// ErrUserExists is returned when a signup collides with an existing
// username. Handlers should translate this into an HTTP 409 response.
var ErrUserExists = errors.New("user already exists")

// ErrNotFound is returned when a delete or lookup target is absent or
// belongs to a different user. Handlers should translate this into an
// HTTP 404 response without distinguishing the two cases.
var ErrNotFound = errors.New("not found")
