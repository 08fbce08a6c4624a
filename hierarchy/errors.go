package hierarchy

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeFilter is returned by ParseTimeFilter. Callers recover by
	// using the default window.
	ErrInvalidTimeFilter = errors.New("invalid time filter")
	// ErrMissingFilterParameter means neither category nor subcategory was given.
	ErrMissingFilterParameter = errors.New("category_id or subcategory_id is required")
	// ErrNotFound means a requested category, subcategory or article does not exist.
	ErrNotFound = errors.New("not found")
)

// QueryError wraps a store failure. Its message is for logs only.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// SerializationError describes a join row that could not be placed in the
// tree. The row is dropped.
type SerializationError struct {
	EventID   uint
	ArticleID uint
	Reason    string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("drop row event=%d article=%d: %s", e.EventID, e.ArticleID, e.Reason)
}

func notFound(kind string, id uint) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
