package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/radieske/coinflip-platform-poc/internal/flip-service/flip"
)

// Snapshot persiste os flips abertos num arquivo JSON. É o seguro
// contra restart: precisa funcionar mesmo com redis e postgres fora
// do ar, por isso é um arquivo local e não uma dependência externa.
type Snapshot struct {
	mu   sync.Mutex
	path string
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Save grava a lista inteira de flips abertos. Escrita atômica via
// arquivo temporário + rename: ou o snapshot antigo ou o novo, nunca
// um arquivo pela metade.
func (s *Snapshot) Save(flips []flip.Flip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if flips == nil {
		flips = []flip.Flip{}
	}
	data, err := json.MarshalIndent(flips, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir snapshot dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadAndDelete lê o snapshot e apaga o arquivo. Arquivo inexistente
// não é erro: primeiro start ou shutdown limpo sem flips.
func (s *Snapshot) LoadAndDelete() ([]flip.Flip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var flips []flip.Flip
	if err := json.Unmarshal(data, &flips); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if err := os.Remove(s.path); err != nil {
		return nil, fmt.Errorf("remove snapshot: %w", err)
	}
	return flips, nil
}
