package events

// Tipos de evento publicados no tópico flip_events.
const (
	FlipCreated   = "flip_created"
	FlipJoined    = "flip_joined"
	FlipResolved  = "flip_resolved"
	FlipCancelled = "flip_cancelled"
	FlipTimedOut  = "flip_timed_out"
	FlipRefunded  = "flip_refunded"
)

// FlipEvent é o payload único do tópico flip_events.
// Campos de resolução (Winner/Pot/Fee/Payout) só aparecem em flip_resolved.
type FlipEvent struct {
	Type        string `json:"type"`
	FlipID      string `json:"flip_id"`
	Creator     string `json:"creator"`
	Joiner      string `json:"joiner,omitempty"`
	Winner      string `json:"winner,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"` // alias da moeda, ex: "dollars"
	PotCents    int64  `json:"pot_cents,omitempty"`
	FeeCents    int64  `json:"fee_cents,omitempty"`
	PayoutCents int64  `json:"payout_cents,omitempty"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
