package topics

const (
	// Flips
	FlipEvents = "flip_events"

	// Alertas de operação (falha de pagamento, reembolso perdido)
	FlipAlerts = "flip_alerts"
)
