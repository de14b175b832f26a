package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// NotAuthorizedError rejects an operation the requester holds no friend
// edge for. The message names the missing relation so the caller can act
// on it; it never carries key material or envelope contents.
type NotAuthorizedError struct {
	Reason string
}

func (e NotAuthorizedError) Error() string {
	if e.Reason == "" {
		return "not authorized"
	}
	return fmt.Sprintf("not authorized: %s", e.Reason)
}

// Is enables errors.Is matching on NotAuthorizedError.
func (e NotAuthorizedError) Is(target error) bool {
	_, ok := target.(NotAuthorizedError)
	if ok {
		return true
	}
	_, ok = target.(*NotAuthorizedError)
	return ok
}

// ErrNotAuthorized is the sentinel error for missing authorization.
var ErrNotAuthorized = NotAuthorizedError{}

// ConflictError represents an attempt to create something that already
// exists, such as a second registration for one username or a duplicate
// friend edge.
type ConflictError struct {
	Resource string
}

func (e ConflictError) Error() string {
	if e.Resource == "" {
		return "already exists"
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// Is enables errors.Is matching on ConflictError.
func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// ErrConflict is the sentinel error for duplicate creation.
var ErrConflict = ConflictError{}

// ErrInvalidCredentials rejects a login with a wrong username or password.
var ErrInvalidCredentials = fmt.Errorf("invalid username or password")
