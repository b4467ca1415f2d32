package score

import (
	"errors"
	"fmt"
)

// ErrUnknownCategoryValue matches any *UnknownCategoryValueError.
var ErrUnknownCategoryValue = errors.New("unknown category value")

// UnknownCategoryValueError reports an answer the active policy has no entry
// for. An empty Value means the category was not answered.
type UnknownCategoryValueError struct {
	Field string
	Value string
}

func (e *UnknownCategoryValueError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("unknown category value: %s: no answer given", e.Field)
	}
	return fmt.Sprintf("unknown category value: %s=%q", e.Field, e.Value)
}

func (e *UnknownCategoryValueError) Is(target error) bool {
	return target == ErrUnknownCategoryValue
}
