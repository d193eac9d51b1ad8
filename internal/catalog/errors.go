package catalog

import (
	"fmt"
	"strings"
)

// FieldError is one entry of a mutation's errors list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MutationError is returned when a mutation answers with a populated
// errors list.
type MutationError struct {
	Mutation string
	Errors   []FieldError
}

func (e *MutationError) Error() string {
	if e == nil {
		return "catalog mutation errors"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msg := strings.TrimSpace(fe.Message)
		if fe.Code != "" {
			msg = fmt.Sprintf("%s [%s]", msg, fe.Code)
		}
		if f := strings.TrimSpace(fe.Field); f != "" {
			msg = f + ": " + msg
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("catalog %s failed with mutation errors", e.Mutation)
	}
	return fmt.Sprintf("catalog %s failed: %s", e.Mutation, strings.Join(parts, "; "))
}

// HasCode reports whether any field error carries code.
func (e *MutationError) HasCode(code string) bool {
	for _, fe := range e.Errors {
		if fe.Code == code {
			return true
		}
	}
	return false
}

func mutationErr(name string, errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &MutationError{Mutation: name, Errors: errs}
}
