// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map each
// one to exactly one HTTP status.  Not-found conditions are reported with
// sql.ErrNoRows, matching what QueryRow returns, so handlers only ever
// compare against sentinels.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation the
// current identity is not allowed to perform, such as a deactivated device
// submitting an upload.  Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as deleting an admin account or issuing an OTP
// for an already-verified address.  Handlers translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")
