package domain

import "errors"

var (
	// ErrInvalidSubject is returned when a join names an unknown subject code.
	ErrInvalidSubject = errors.New("unknown subject")
	// ErrAlreadyQueued is returned when a connection already holds a queue entry.
	ErrAlreadyQueued = errors.New("already waiting in a queue")
	// ErrAlreadyInBattle is returned when a connection tries to queue mid-battle.
	ErrAlreadyInBattle = errors.New("already in a battle")
	// ErrNoQuestionsAvailable indicates no active questions exist for any subject.
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrNotInBattle is returned when an answer arrives from an idle connection.
	ErrNotInBattle = errors.New("not in a battle")
	// ErrIdentityNotFound indicates the handshake token resolved to nothing.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityInactive indicates the account behind the token is disabled.
	ErrIdentityInactive = errors.New("account is not active")
)
