// Package transport defines request/response DTOs for the credits endpoints.
package transport

import (
	"time"

	"leadgate_backend/internal/ledger/repository"
)

// TopupRequest credits a requester account. Reference is the payment
// provider's identifier for the payment and doubles as idempotency key.
type TopupRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0,lte=1000000"`
	Reference string `json:"reference" validate:"required,max=128"`
}

// BalanceResponse reports the account state.
type BalanceResponse struct {
	RequesterID   string `json:"requesterId"`
	Balance       int64  `json:"balance"`
	TotalDebited  int64  `json:"totalDebited"`
	TotalCredited int64  `json:"totalCredited"`
}

// TopupResponse reports the outcome of a top-up.
type TopupResponse struct {
	Balance  int64 `json:"balance"`
	Replayed bool  `json:"replayed"`
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID           string    `json:"id"`
	Delta        int64     `json:"delta"`
	Reason       string    `json:"reason"`
	BalanceAfter int64     `json:"balanceAfter"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromAccount converts a repository account.
func FromAccount(a repository.Account) BalanceResponse {
	return BalanceResponse{
		RequesterID:   a.ID.String(),
		Balance:       a.Balance,
		TotalDebited:  a.TotalDebited,
		TotalCredited: a.TotalCredited,
	}
}

// FromTransactions converts ledger entries.
func FromTransactions(txns []repository.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, TransactionResponse{
			ID:           t.ID.String(),
			Delta:        t.Delta,
			Reason:       t.Reason,
			BalanceAfter: t.BalanceAfter,
			CreatedAt:    t.CreatedAt,
		})
	}
	return out
}
