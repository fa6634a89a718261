package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/coinflip-platform-poc/internal/flip-service/flip"
	"github.com/radieske/coinflip-platform-poc/internal/flip-service/http/dto"
)

// Server expõe o ciclo de vida dos flips para a camada de comando.
type Server struct {
	log *zap.Logger
	mgr *flip.Manager
}

func NewServer(log *zap.Logger, mgr *flip.Manager) *Server {
	return &Server{log: log, mgr: mgr}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/flips", s.flips)                         // POST cria, GET lista
	mux.HandleFunc("/flips/join", s.joinFlip)                 // POST
	mux.HandleFunc("/flips/cancel", s.cancelFlip)             // POST
	mux.HandleFunc("/players/connect", s.playerConnect)       // POST
	mux.HandleFunc("/players/disconnect", s.playerDisconnect) // POST
	return mux
}

func (s *Server) flips(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createFlip(w, r)
	case http.MethodGet:
		s.listFlips(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createFlip(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFlipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Currency == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	f, err := s.mgr.Create(r.Context(), req.UserID, req.Currency, req.AmountCents)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, dto.FlipResponse{
		FlipID:      f.ID,
		Creator:     f.Creator,
		AmountCents: f.AmountCents,
		Currency:    req.Currency,
	})
}

func (s *Server) joinFlip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.JoinFlipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.CreatorID == "" || req.FlipID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	res, err := s.mgr.Join(r.Context(), req.UserID, req.CreatorID, req.FlipID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, dto.ResultResponse{
		FlipID:      res.Flip.ID,
		Winner:      res.Winner,
		Loser:       res.Loser,
		PotCents:    res.PotCents,
		FeeCents:    res.FeeCents,
		PayoutCents: res.PayoutCents,
	})
}

func (s *Server) cancelFlip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CancelFlipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	f, err := s.mgr.Cancel(r.Context(), req.UserID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, dto.CancelResponse{
		FlipID:        f.ID,
		RefundedCents: f.AmountCents,
		Currency:      s.mgr.CurrencyAlias(f.Currency),
	})
}

func (s *Server) listFlips(w http.ResponseWriter, _ *http.Request) {
	open := s.mgr.OpenFlips()
	out := make([]dto.FlipResponse, 0, len(open))
	for _, f := range open {
		out = append(out, dto.FlipResponse{
			FlipID:      f.ID,
			Creator:     f.Creator,
			Joiner:      f.Joiner,
			AmountCents: f.AmountCents,
			Currency:    s.mgr.CurrencyAlias(f.Currency),
		})
	}
	writeJSON(w, out)
}

func (s *Server) playerConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlayerEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	refunded := s.mgr.Connect(r.Context(), req.UserID)
	var total int64
	for _, f := range refunded {
		total += f.AmountCents
	}
	writeJSON(w, dto.ConnectResponse{RefundedFlips: len(refunded), RefundedCents: total})
}

func (s *Server) playerDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlayerEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	s.mgr.Disconnect(r.Context(), req.UserID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// writeFailure mapeia cada falha tipada do domínio para um status e
// mensagem próprios. Só indisponibilidade do ledger gera log de
// operador; o resto é erro de jogador.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, flip.ErrInvalidAmount), errors.Is(err, flip.ErrInvalidCurrency):
		status = http.StatusBadRequest
	case errors.Is(err, flip.ErrNotFound), errors.Is(err, flip.ErrNoCancellableFlip):
		status = http.StatusNotFound
	case errors.Is(err, flip.ErrInsufficientFunds), errors.Is(err, flip.ErrLimitExceeded),
		errors.Is(err, flip.ErrSelfJoin), errors.Is(err, flip.ErrCreatorBusy):
		status = http.StatusConflict
	case errors.Is(err, flip.ErrLedgerUnavailable):
		status = http.StatusServiceUnavailable
		s.log.Error("ledger unavailable", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
