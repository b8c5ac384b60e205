package store

import (
	"errors"
	"fmt"
)

// ErrCategoryInUse matches every *CategoryInUseError via errors.Is
var ErrCategoryInUse = errors.New("category in use")

// CategoryInUseError is returned when deleting a category that tasks still reference
type CategoryInUseError struct {
	CategoryID string
	Count      int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category %s is used by %d task(s)", e.CategoryID, e.Count)
}

// Is reports whether target is ErrCategoryInUse
func (e *CategoryInUseError) Is(target error) bool {
	return target == ErrCategoryInUse
}

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
