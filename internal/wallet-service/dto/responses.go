package dto

type BalanceResponse struct {
	UserID       string `json:"userId"`
	Currency     string `json:"currency"`
	AccountID    string `json:"accountId"`
	BalanceCents int64  `json:"balance_cents"`
}

type MoveResponse struct {
	UserID       string `json:"userId"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balance_cents"`
}
