/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Every kind is recoverable at the caller boundary; none is fatal to the
  process, and a failed operation never leaves partial state.

ERROR TAXONOMY:
  NotFound           Unknown product/report reference
  Validation         Non-positive price/quantity, empty name, retired product
  InsufficientStock  Sale exceeds current stock
  InvalidAdjustment  Adjustment would drive stock negative
  EarlySubmission    Report submit attempted before the 18:00 gate
  Conflict           Write collision detected by the store

USAGE:
  if errors.Is(err, ledger.ErrInsufficientStock) { ... }

  var short *ledger.InsufficientStockError
  if errors.As(err, &short) {
      fmt.Println(short.Available, short.Requested)
  }

The core never retries internally; retry-on-Conflict is the caller's
responsibility.
*/
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a product or report reference does not
	// resolve to an existing record.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input: empty name,
	// non-positive price or quantity, negative initial stock, or an
	// operation against a retired product.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock is returned when a sale quantity exceeds the
	// product's current stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidAdjustment is returned when a stock adjustment would drive
	// stock below zero.
	ErrInvalidAdjustment = errors.New("adjustment would make stock negative")

	// ErrEarlySubmission is returned when a daily report is submitted
	// before the local close-of-day gate.
	ErrEarlySubmission = errors.New("report submitted before close of day")

	// ErrConflict is returned when the store detects a write collision.
	ErrConflict = errors.New("write conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	ProductID ProductID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, requested %s",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// AdjustmentError describes an adjustment that would drive stock negative.
type AdjustmentError struct {
	ProductID ProductID
	Stock     decimal.Decimal
	Delta     decimal.Decimal
}

func (e *AdjustmentError) Error() string {
	return fmt.Sprintf("adjustment %s on %s would drop stock below zero (current %s)",
		e.Delta, e.ProductID, e.Stock)
}

func (e *AdjustmentError) Unwrap() error { return ErrInvalidAdjustment }

// EarlySubmissionError records when the gate was tried and when it opens.
type EarlySubmissionError struct {
	At       time.Time
	GateHour int
}

func (e *EarlySubmissionError) Error() string {
	return fmt.Sprintf("daily report cannot be submitted before %02d:00 (attempted at %s)",
		e.GateHour, e.At.Format("15:04"))
}

func (e *EarlySubmissionError) Unwrap() error { return ErrEarlySubmission }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClientError returns true if the error is due to invalid caller input
// or state the caller can observe and correct.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidAdjustment) ||
		errors.Is(err, ErrEarlySubmission)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool { return errors.Is(err, ErrConflict) }
