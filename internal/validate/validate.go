// Package validate holds the client-side field checks that run before
// any request is issued.
package validate

import "strings"

// Error is a field validation failure. Requests carrying one of these
// never reach the network.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &Error{Field: field, Message: field + " is required."}
	}
	return nil
}

// Email checks the value is present and shaped like an email address.
func Email(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "@") || !strings.Contains(value, ".") {
		return &Error{Field: field, Message: "Please enter a valid email address."}
	}
	return nil
}

// PositiveAmount checks the amount is strictly positive.
func PositiveAmount(field string, amount float64) error {
	if amount <= 0 {
		return &Error{Field: field, Message: "Amount must be greater than zero."}
	}
	return nil
}
