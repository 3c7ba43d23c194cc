package pipeline

import (
	"errors"
	"fmt"

	"github.com/tsawler/docstruct/model"
)

// ErrInput matches every InputError with errors.Is.
var ErrInput = errors.New("input error")

// ErrEmptyMarkup is the cause of an InputError for blank markup.
var ErrEmptyMarkup = errors.New("markup is empty")

// InputError reports markup that could not be read as any node of its
// dialect. It is the only error Run returns besides the context's.
type InputError struct {
	Dialect model.Dialect
	Err     error
}

func (e *InputError) Error() string {
	if e.Dialect == "" {
		return fmt.Sprintf("docstruct: invalid input: %v", e.Err)
	}
	return fmt.Sprintf("docstruct: invalid %s input: %v", e.Dialect, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInput
}
