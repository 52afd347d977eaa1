// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking engine to distinguish between different
// failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrBookingNotFound is returned when no booking matches the given
// identifier or server id. Handlers should translate this into an HTTP
// 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound is returned when no user matches the given username or
// id.
var ErrUserNotFound = errors.New("user not found")
