package checkout

import "fmt"

// Code classifies settlement failures so callers can map them to a recovery
// path: fix the input, reselect a slot, or retry the write.
type Code int

const (
	// CodeValidation: a delivery detail or cart precondition failed. No
	// mutation happened; the caller corrects the input and retries.
	CodeValidation Code = iota
	// CodeSlotUnavailable: the chosen slot stopped being bookable between
	// render and submission. The caller must reselect.
	CodeSlotUnavailable
	// CodePersistence: a store write failed. In-memory state was rolled
	// back; the whole settlement is retryable.
	CodePersistence
)

func (c Code) String() string {
	switch c {
	case CodeValidation:
		return "VALIDATION"
	case CodeSlotUnavailable:
		return "SLOT_UNAVAILABLE"
	case CodePersistence:
		return "PERSISTENCE"
	}
	return "UNKNOWN"
}

// Error is the settlement failure type. Field names the offending delivery
// detail for validation failures and is empty otherwise.
type Error struct {
	Code    Code
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewValidation reports a field-level input failure.
func NewValidation(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

// NewPrecondition reports a non-field validation failure (empty cart,
// subtotal below minimum, missing delivery area).
func NewPrecondition(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// NewSlotUnavailable reports that the selected slot is no longer bookable.
func NewSlotUnavailable(date string, window string) *Error {
	return &Error{
		Code:    CodeSlotUnavailable,
		Message: fmt.Sprintf("slot %s %s is no longer available", date, window),
	}
}

// NewPersistence wraps a failed store write.
func NewPersistence(err error) *Error {
	return &Error{Code: CodePersistence, Message: "order could not be saved", cause: err}
}
