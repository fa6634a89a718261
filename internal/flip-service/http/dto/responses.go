package dto

type FlipResponse struct {
	FlipID      string `json:"flipId"`
	Creator     string `json:"creator"`
	Joiner      string `json:"joiner,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"` // alias
}

type ResultResponse struct {
	FlipID      string `json:"flipId"`
	Winner      string `json:"winner"`
	Loser       string `json:"loser"`
	PotCents    int64  `json:"pot_cents"`
	FeeCents    int64  `json:"fee_cents"`
	PayoutCents int64  `json:"payout_cents"`
}

type CancelResponse struct {
	FlipID        string `json:"flipId"`
	RefundedCents int64  `json:"refunded_cents"`
	Currency      string `json:"currency"` // alias
}

type ConnectResponse struct {
	RefundedFlips int   `json:"refunded_flips"`
	RefundedCents int64 `json:"refunded_cents"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
