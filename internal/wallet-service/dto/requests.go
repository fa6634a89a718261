package dto

type WithdrawRequest struct {
	UserID      string `json:"userId"`
	Currency    string `json:"currency"` // chave completa, ex: "impactor:dollars"
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref,omitempty"`
}

type DepositRequest struct {
	UserID      string `json:"userId"`
	Currency    string `json:"currency"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref,omitempty"`
}
