package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/coinflip-platform-poc/internal/wallet-service/dto"
	"github.com/radieske/coinflip-platform-poc/internal/wallet-service/repo"
)

// Repo define a interface de operações do ledger usadas pelo handler HTTP
type Repo interface {
	GetOrCreateAccount(ctx context.Context, userID, currency string) (accountID string, balance int64, err error)
	Withdraw(ctx context.Context, userID, currency string, amount int64, externalRef string) (newBalance int64, err error)
	Deposit(ctx context.Context, userID, currency string, amount int64, externalRef string) (newBalance int64, err error)
}

// Server expõe o ledger de fundos por HTTP: saldo, saque e depósito
// por (usuário, moeda).
type Server struct {
	log  *zap.Logger
	repo Repo
}

func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ledger/balance", s.balance)   // GET ?userId=...&currency=...
	mux.HandleFunc("/ledger/withdraw", s.withdraw) // POST
	mux.HandleFunc("/ledger/deposit", s.deposit)   // POST
	return mux
}

// balance retorna (ou cria) a conta do usuário na moeda e o saldo
func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	currency := r.URL.Query().Get("currency")
	if userID == "" || currency == "" {
		http.Error(w, "userId and currency required", http.StatusBadRequest)
		return
	}
	accountID, bal, err := s.repo.GetOrCreateAccount(r.Context(), userID, currency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.BalanceResponse{UserID: userID, Currency: currency, AccountID: accountID, BalanceCents: bal})
}

// withdraw debita saldo; saldo insuficiente responde 409
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Currency == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	bal, err := s.repo.Withdraw(r.Context(), req.UserID, req.Currency, req.AmountCents, req.ExternalRef)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, dto.MoveResponse{UserID: req.UserID, Currency: req.Currency, BalanceCents: bal})
}

// deposit credita saldo na conta do usuário
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Currency == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	bal, err := s.repo.Deposit(r.Context(), req.UserID, req.Currency, req.AmountCents, req.ExternalRef)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.MoveResponse{UserID: req.UserID, Currency: req.Currency, BalanceCents: bal})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
