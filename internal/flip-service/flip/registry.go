package flip

import "sync"

// Registry é o dono único dos flips abertos. Todo acesso passa pelas
// operações atômicas daqui; nenhum chamador enxerga o mapa interno.
//
// A transição de "aberto sem joiner" para qualquer estado final é um
// check-and-set sob o mutex: entre join, cancel e timeout, só um
// consegue reivindicar um flip.
type Registry struct {
	mu    sync.RWMutex
	limit int

	// criador -> flips abertos, em ordem de criação
	flips map[string][]*Flip

	// criações em andamento (reserva de vaga antes do saque no ledger)
	reserved map[string]int
}

func NewRegistry(limit int) *Registry {
	return &Registry{
		limit:    limit,
		flips:    make(map[string][]*Flip),
		reserved: make(map[string]int),
	}
}

// Reserve garante uma vaga no limite por jogador antes de qualquer
// movimentação no ledger. Duas criações concorrentes não passam as
// duas pelo limite: a contagem inclui reservas ainda não inseridas.
func (r *Registry) Reserve(creator string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.flips[creator])+r.reserved[creator] >= r.limit {
		return ErrLimitExceeded
	}
	r.reserved[creator]++
	return nil
}

// Release devolve uma vaga reservada (saque falhou, nada foi criado).
func (r *Registry) Release(creator string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reserved[creator] > 0 {
		r.reserved[creator]--
	}
	if r.reserved[creator] == 0 {
		delete(r.reserved, creator)
	}
}

// Insert consome a reserva e registra o flip recém-criado.
func (r *Registry) Insert(f *Flip) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reserved[f.Creator] > 0 {
		r.reserved[f.Creator]--
		if r.reserved[f.Creator] == 0 {
			delete(r.reserved, f.Creator)
		}
	}
	r.flips[f.Creator] = append(r.flips[f.Creator], f)
}

// FindAnyOpen retorna uma cópia do flip, com ou sem joiner. Usado pelo
// caminho de join para distinguir "não existe" de "já foi levado".
func (r *Registry) FindAnyOpen(creator, id string) (Flip, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.flips[creator] {
		if f.ID == id {
			return *f, true
		}
	}
	return Flip{}, false
}

// ClaimJoin escreve o joiner se o flip ainda está aberto e sem joiner.
// É o único escritor do campo Joiner.
func (r *Registry) ClaimJoin(creator, id, joiner string) (Flip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.flips[creator] {
		if f.ID == id && f.Joiner == "" {
			f.Joiner = joiner
			return *f, true
		}
	}
	return Flip{}, false
}

// ClaimUnjoined remove o flip se ainda está sem joiner (caminho do
// timeout). Se o join ou o cancel chegou antes, retorna false.
func (r *Registry) ClaimUnjoined(creator, id string) (Flip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, f := range r.flips[creator] {
		if f.ID == id && f.Joiner == "" {
			r.removeAt(creator, i)
			return *f, true
		}
	}
	return Flip{}, false
}

// ClaimFirstUnjoined remove o flip sem joiner mais antigo do criador
// (caminho do cancel manual).
func (r *Registry) ClaimFirstUnjoined(creator string) (Flip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, f := range r.flips[creator] {
		if f.Joiner == "" {
			r.removeAt(creator, i)
			return *f, true
		}
	}
	return Flip{}, false
}

// ClaimAllUnjoined remove e retorna todos os flips sem joiner do
// jogador (desconexão).
func (r *Registry) ClaimAllUnjoined(creator string) []Flip {
	r.mu.Lock()
	defer r.mu.Unlock()

	var claimed []Flip
	var rest []*Flip
	for _, f := range r.flips[creator] {
		if f.Joiner == "" {
			claimed = append(claimed, *f)
		} else {
			rest = append(rest, f)
		}
	}
	if len(rest) == 0 {
		delete(r.flips, creator)
	} else {
		r.flips[creator] = rest
	}
	return claimed
}

// Restore devolve um flip reivindicado cujo reembolso falhou, para que
// um cancel posterior tente de novo. Não passa pelo limite: a vaga
// ainda era dele. Reentra na posição original por CreatedAt, mantendo
// o cancel no mais antigo.
func (r *Registry) Restore(f Flip) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := f
	list := r.flips[f.Creator]
	i := len(list)
	for j, g := range list {
		if cp.CreatedAt.Before(g.CreatedAt) {
			i = j
			break
		}
	}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = &cp
	r.flips[f.Creator] = list
}

// Remove apaga o flip do criador; idempotente.
func (r *Registry) Remove(creator, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, f := range r.flips[creator] {
		if f.ID == id {
			r.removeAt(creator, i)
			return
		}
	}
}

// removeAt tira o índice i preservando a ordem; chamador segura o lock.
func (r *Registry) removeAt(creator string, i int) {
	list := r.flips[creator]
	list = append(list[:i], list[i+1:]...)
	if len(list) == 0 {
		delete(r.flips, creator)
	} else {
		r.flips[creator] = list
	}
}

// Snapshot retorna cópias de todos os flips abertos, para listagem e
// persistência. Tolerante a leitura levemente defasada.
func (r *Registry) Snapshot() []Flip {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Flip
	for _, list := range r.flips {
		for _, f := range list {
			out = append(out, *f)
		}
	}
	return out
}

// openCount conta os flips abertos do criador.
func (r *Registry) openCount(creator string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flips[creator])
}
