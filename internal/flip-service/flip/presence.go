package flip

import (
	"sync"
	"time"
)

// Presence marca jogadores com um resultado em exibição. Enquanto o
// criador está marcado, ninguém entra nos outros flips dele.
type Presence struct {
	mu  sync.Mutex
	set map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{set: make(map[string]struct{})}
}

func (p *Presence) Add(player string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set[player] = struct{}{}
}

// AddFor marca o jogador e agenda a saída ao fim da janela de exibição.
func (p *Presence) AddFor(player string, d time.Duration) {
	p.Add(player)
	time.AfterFunc(d, func() { p.Remove(player) })
}

func (p *Presence) Remove(player string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.set, player)
}

func (p *Presence) Contains(player string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.set[player]
	return ok
}
