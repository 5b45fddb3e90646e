package gorepo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a required dependency or argument is
	// missing or out of range.
	ErrInvalidArgument = errors.New("gorepo: invalid argument")
	// ErrInvalidExpression is returned when a filter, ordering or include
	// references something the model does not have.
	ErrInvalidExpression = errors.New("gorepo: invalid expression")
	// ErrPersistenceConflict is returned when a mutation matched no record.
	ErrPersistenceConflict = errors.New("gorepo: persistence conflict")
)

// ExpressionKind names the part of a query an ExpressionError comes from.
type ExpressionKind string

const (
	ExpressionKindFilter  ExpressionKind = "filter"
	ExpressionKindOrder   ExpressionKind = "order"
	ExpressionKindInclude ExpressionKind = "include"
)

// ExpressionError describes a composition failure.
type ExpressionError struct {
	Kind ExpressionKind
	// Name is the offending column, relation or operator.
	Name string
	// Closest is the closest known column or relation, if any.
	Closest string
	Reason  string
}

func (e *ExpressionError) Error() string {
	msg := fmt.Sprintf("%s: %s '%s'", ErrInvalidExpression, e.Kind, e.Name)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Closest != "" {
		msg += fmt.Sprintf(". closest: '%s'", e.Closest)
	}

	return msg
}

// Unwrap returns ErrInvalidExpression for use with errors.Is.
func (e *ExpressionError) Unwrap() error {
	return ErrInvalidExpression
}

// ConflictError reports a mutation that affected no rows.
type ConflictError struct {
	Op    string
	Table string
	ID    any
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s %s id=%v affected no rows", ErrPersistenceConflict, e.Op, e.Table, e.ID)
}

// Unwrap returns ErrPersistenceConflict for use with errors.Is.
func (e *ConflictError) Unwrap() error {
	return ErrPersistenceConflict
}
