package service

import (
	"errors"

	"github.com/unkn0wn-root/menucache/internal/store"
)

// ErrEmptyUpdate is returned when an update sets no field.
var ErrEmptyUpdate = errors.New("at least one field must be set")

// NotFoundError reports an entity missing at the requested scope.
type NotFoundError struct {
	Kind string
}

func (e *NotFoundError) Error() string { return e.Kind + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == store.ErrNotFound }

// notFound translates store.ErrNotFound into a *NotFoundError for kind.
func notFound(kind string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Kind: kind}
	}
	return err
}
