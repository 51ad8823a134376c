package levelshare

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrInvalidInput indicates a request failed validation before any side effect
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateUsername indicates the username is already taken
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrLevelNotFound indicates a level was not found
	ErrLevelNotFound = errors.New("level not found")

	// ErrInvalidCredential indicates a password did not match the stored hash
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrMissingToken indicates no session token was supplied
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken indicates a malformed, expired or forged session token.
	// Callers must treat it the same as ErrMissingToken: unauthenticated.
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden indicates the actor lacks permission for the operation
	ErrForbidden = errors.New("forbidden")

	// ErrPayloadTooLarge indicates a publish submission exceeded the upload ceiling
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUploadFailed indicates a blob upload failed
	ErrUploadFailed = errors.New("upload failed")

	// ErrStoreUnavailable indicates the record store could not be reached
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// LevelError represents an error related to level operations
type LevelError struct {
	LevelID uuid.UUID
	Op      string
	Err     error
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("level operation %s failed for level %s: %v", e.Op, e.LevelID, e.Err)
}

func (e *LevelError) Unwrap() error {
	return e.Err
}

// UserError represents an error related to user operations
type UserError struct {
	Username string
	Op       string
	Err      error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("user operation %s failed for %q: %v", e.Op, e.Username, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob store operations
type StorageError struct {
	Kind   BlobKind
	BlobID string
	Op     string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for %s blob %s: %v", e.Op, e.Kind, e.BlobID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
