package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrConflict: a uniqueness or version constraint rejected the write
//   - ErrUnavailable: service or resource temporarily unavailable
//   - ErrRejected: a remote collaborator explicitly declined the request
//   - ErrClosed: component no longer accepts work
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrRejected    = errors.New("rejected")
	ErrClosed      = errors.New("closed")
)
