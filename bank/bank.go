// Package bank is the REST wrapper for the bank account endpoints:
// listing, creation and balance mutations.
package bank

// Account is a bank balance entity. Balance is in currency-agnostic
// units; after a mutation it always comes from the server's response,
// never from client-side arithmetic.
type Account struct {
	ID         string  `json:"id"`
	OwnerEmail string  `json:"ownerEmail"`
	Balance    float64 `json:"balance"`
}

// Action selects which balance-mutating endpoint to call.
type Action string

const (
	ActionCredit Action = "credit"
	ActionDebit  Action = "debit"
)
