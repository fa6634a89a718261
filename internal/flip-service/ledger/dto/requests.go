package dto

// MoveRequest serve para withdraw e deposit no ledger de fundos.
type MoveRequest struct {
	UserID      string `json:"userId"`
	Currency    string `json:"currency"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref,omitempty"`
}

// BalanceResponse é a resposta de GET /ledger/balance.
type BalanceResponse struct {
	UserID       string `json:"userId"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
}

// MoveResponse é a resposta de withdraw/deposit.
type MoveResponse struct {
	UserID       string `json:"userId"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
}
