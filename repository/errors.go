package repository

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a conditional write matched nothing
	// because the document changed underneath it.
	ErrConflict = errors.New("document changed concurrently")
)

// DuplicateKeyError reports a unique index violation on Field.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// translate maps driver errors onto the package's sentinel errors.
func translate(err error, uniqueFields ...string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		field := "key"
		for _, f := range uniqueFields {
			if strings.Contains(err.Error(), f+"_") {
				field = f
				break
			}
		}
		return &DuplicateKeyError{Field: field, Err: err}
	}
	return err
}
