/**
 * @description
 * Inbound DTO and field-level validation for the transfer endpoint. The
 * request keys mirror what the web clients already send (`fromUserId`,
 * `toAccountNumber`, ...), and the amount field coerces both JSON numbers and
 * numeric strings the way those clients rely on.
 */

package domain

import (
	"math"
	"strconv"
	"strings"
)

// TransferRequest is the DTO for an incoming transfer API request.
type TransferRequest struct {
	FromUserID      string `json:"fromUserId"`
	ToAccountNumber string `json:"toAccountNumber"`
	Amount          Amount `json:"amount"`
	FromBank        string `json:"fromBank"`
	Note            string `json:"note"`
}

// FieldError describes one schema violation in a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Amount is a kobo value that accepts either a JSON number or a numeric
// string. Decoding never fails outright; malformed values surface as a
// field error from Validate instead of a decode error.
type Amount struct {
	value int64
	valid bool
}

// NewAmount builds a valid Amount, mainly for tests and internal callers.
func NewAmount(v int64) Amount {
	return Amount{value: v, valid: true}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		a.value = v
		a.valid = true
		return nil
	}
	// Tolerate float-shaped input as long as it carries no fractional kobo.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		a.value = int64(f)
		a.valid = true
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(a.value, 10)), nil
}

// Int64 returns the coerced kobo value. Zero when the input was malformed.
func (a Amount) Int64() int64 { return a.value }

// Positive reports whether the amount parsed cleanly and is greater than zero.
func (a Amount) Positive() bool { return a.valid && a.value > 0 }

// Validate checks the request against the endpoint schema and returns every
// violation found, one entry per offending field.
func (r TransferRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.FromUserID) == "" {
		errs = append(errs, FieldError{Field: "fromUserId", Message: "From user ID is required"})
	}
	if len(r.ToAccountNumber) != 10 {
		errs = append(errs, FieldError{Field: "toAccountNumber", Message: "Account number must be 10 digits"})
	}
	if !r.Amount.Positive() {
		errs = append(errs, FieldError{Field: "amount", Message: "Amount must be positive"})
	}
	if strings.TrimSpace(r.FromBank) == "" {
		errs = append(errs, FieldError{Field: "fromBank", Message: "Destination bank is required"})
	}
	return errs
}
