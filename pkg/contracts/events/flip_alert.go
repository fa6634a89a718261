package events

// FlipAlert é emitido quando o dinheiro já saiu do estado aberto e um
// depósito falhou. Exige reconciliação manual pelo operador.
type FlipAlert struct {
	FlipID      string `json:"flip_id"`
	User        string `json:"user"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Reason      string `json:"reason"` // "payout_failed" | "refund_failed" | "resolution_lost"
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
