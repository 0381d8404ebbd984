package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotPresent         = errors.New("not present")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrSelfFollow         = errors.New("cannot subscribe to yourself")
)

// ValidationKind classifies a rejected input.
type ValidationKind string

const (
	EmptyIngredients    ValidationKind = "empty_ingredients"
	EmptyTags           ValidationKind = "empty_tags"
	UnknownIngredient   ValidationKind = "unknown_ingredient"
	UnknownTag          ValidationKind = "unknown_tag"
	DuplicateIngredient ValidationKind = "duplicate_ingredient"
	InvalidAmount       ValidationKind = "invalid_amount"
	InvalidField        ValidationKind = "invalid_field"
)

// ValidationError reports input rejected before any write happened.
// ID is set for kinds that refer to a specific ingredient or tag.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	ID      uint
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(kind ValidationKind, field string, id uint) *ValidationError {
	var msg string
	switch kind {
	case EmptyIngredients:
		msg = "ingredients list must not be empty"
	case EmptyTags:
		msg = "tags list must not be empty"
	case UnknownIngredient:
		msg = fmt.Sprintf("ingredient %d does not exist", id)
	case UnknownTag:
		msg = fmt.Sprintf("tag %d does not exist", id)
	case DuplicateIngredient:
		msg = fmt.Sprintf("ingredient %d is listed more than once", id)
	case InvalidAmount:
		msg = fmt.Sprintf("amount for ingredient %d must be between 1 and 10000", id)
	default:
		msg = "invalid value"
	}
	return &ValidationError{Kind: kind, Field: field, ID: id, Message: msg}
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Kind: InvalidField, Field: field, Message: message}
}

// StorageError wraps a failure of the database or object store. The
// surrounding transaction has been rolled back when it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// isDomainError reports errors that describe the request rather than the
// storage layer. They pass through transaction wrappers unchanged.
func isDomainError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	for _, target := range []error{
		ErrNotFound, ErrForbidden, ErrAlreadyExists, ErrNotPresent,
		ErrInvalidCredentials, ErrSelfFollow,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
