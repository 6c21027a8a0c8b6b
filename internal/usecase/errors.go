package usecase

import (
	"errors"
	"fmt"

	"talent-split/internal/domain/application"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrBusy               = errors.New("busy")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal error")
)

// TransitionError says which move was refused so the caller can render it.
// errors.Is(err, ErrInvalidTransition) holds.
type TransitionError struct {
	Current application.Stage
	Target  application.Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.Current, e.Target)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ConflictError carries the relationship that blocked an exclusivity-sensitive
// operation. errors.Is(err, ErrConflict) holds.
type ConflictError struct {
	RelationshipID uuid.UUID
	RecruiterID    uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("candidate already represented: relationship %s held by recruiter %s",
		e.RelationshipID, e.RecruiterID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// PreconditionError names what's missing before a stage can be entered.
// errors.Is(err, ErrPreconditionFailed) holds.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }
