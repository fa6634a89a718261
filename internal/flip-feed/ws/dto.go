package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Topic: "flips" para o feed global ou o id de um criador
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// FlipUpdate é a atualização enviada aos clientes inscritos no tópico.
type FlipUpdate struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}
