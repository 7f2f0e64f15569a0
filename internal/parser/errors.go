package parser

import (
	"fmt"
)

// TooShortError reports a line below the minimum decodable width.
type TooShortError struct {
	Required int
	Actual   int
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("line must be at least %d characters, got %d", e.Required, e.Actual)
}

// InvalidAmountError reports an amount field that is not a valid decimal
// after the implicit-decimal transform.
type InvalidAmountError struct {
	Raw string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid numeric amount: %q", e.Raw)
}

// InvalidExpiryError reports a day-count field that is not an integer.
type InvalidExpiryError struct {
	Raw string
}

func (e *InvalidExpiryError) Error() string {
	return fmt.Sprintf("invalid expiry day count: %q", e.Raw)
}

// LineError wraps any failure while decoding one line. It aborts the whole
// file: one bad line fails the entire ingestion.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
