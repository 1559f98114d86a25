// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by someone
// else (editing another sender's chat message), while
// ErrStoreUnavailable signals that the session store could not be
// reached at all and the caller must not treat the user as logged out.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a requested user or message row does
// not exist. Handlers should translate this into an HTTP 404 (or a
// 401 when the missing record invalidates a session).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering with an email that is
// already taken. Handlers should translate this into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrStoreUnavailable is returned when the refresh-token store cannot
// be reached. Session state is unknown, not absent: handlers must
// surface a 500-class response rather than rejecting the session.
var ErrStoreUnavailable = errors.New("session store unavailable")
