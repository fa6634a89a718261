package flip

import (
	"sync"
	"time"
)

// Scheduler dispara ações one-shot por flip. Não há cancelamento
// explícito de timer: quem dispara revalida o estado no registro, e um
// disparo atrasado vira no-op.
type Scheduler struct {
	mu      sync.Mutex
	stopped bool
	timers  map[string]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arma um timer único para o flip. Depois de Stop, novos
// agendamentos são ignorados.
func (s *Scheduler) Schedule(flipID string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.timers[flipID] = time.AfterFunc(d, func() {
		s.forget(flipID)
		fn()
	})
}

func (s *Scheduler) forget(flipID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, flipID)
}

// Stop interrompe todos os timers pendentes. Flips ainda abertos serão
// tratados pela recuperação no próximo start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
