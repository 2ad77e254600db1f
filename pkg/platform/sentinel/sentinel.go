package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, sockets, and adapters
// return these (optionally wrapped) so the state machine can translate them
// into domain errors or state transitions.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist (user, session, consent record)
// - ErrConflict: a live resource already occupies the slot
// - ErrExpired: token/session has expired
// - ErrClosed: channel or socket was torn down
// - ErrTimeout: bounded wait elapsed without a result
// - ErrCanceled: the wait was ended deliberately, distinct from ErrTimeout
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrExpired  = errors.New("expired")
	ErrClosed   = errors.New("closed")
	ErrTimeout  = errors.New("timeout")
	ErrCanceled = errors.New("canceled")
)
