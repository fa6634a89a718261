package dto

type CreateFlipRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"` // alias, ex: "dollars"
}

type JoinFlipRequest struct {
	UserID    string `json:"userId"`
	CreatorID string `json:"creatorId"`
	FlipID    string `json:"flipId"`
}

type CancelFlipRequest struct {
	UserID string `json:"userId"`
}

type PlayerEventRequest struct {
	UserID string `json:"userId"`
}
