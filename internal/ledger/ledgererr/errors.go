// Package ledgererr defines the error types shared between the ledger
// store and its callers. It sits below the repository so the unlock
// coordinator can match on them without importing the wiring package.
package ledgererr

import (
	"errors"
	"fmt"
)

// InsufficientCreditsError is returned when a debit would push the balance
// negative. It carries the numbers the caller needs to prompt for a top-up.
type InsufficientCreditsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: balance %d, required %d", e.Balance, e.Required)
}

// Shortfall returns how many credits are missing.
func (e *InsufficientCreditsError) Shortfall() int64 {
	return e.Required - e.Balance
}

// ErrConflict signals a lost race on an idempotency key where the winning
// transaction is not yet visible. Callers retry once; it never reaches users.
var ErrConflict = errors.New("concurrent ledger write conflict")
