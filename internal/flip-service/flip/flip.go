package flip

import (
	"time"

	"github.com/google/uuid"
)

// Flip é uma aposta aberta: criador, valor em custódia e, depois do
// join, o segundo participante. O valor e a moeda nunca mudam; o
// Joiner é escrito uma única vez, pelo caminho de join.
type Flip struct {
	ID          string    `json:"id"`
	Creator     string    `json:"creator"`
	Joiner      string    `json:"joiner,omitempty"` // vazio até alguém entrar
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"` // chave completa, ex: "impactor:dollars"
	CreatedAt   time.Time `json:"created_at"`
}

func newFlip(creator string, amount int64, currency string) *Flip {
	return &Flip{
		ID:          uuid.NewString(),
		Creator:     creator,
		AmountCents: amount,
		Currency:    currency,
		CreatedAt:   time.Now(),
	}
}

// Result descreve o desfecho de um flip resolvido.
type Result struct {
	Flip        Flip
	Winner      string
	Loser       string
	PotCents    int64
	FeeCents    int64
	PayoutCents int64
}
