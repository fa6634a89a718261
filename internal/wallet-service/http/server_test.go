package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/coinflip-platform-poc/internal/wallet-service/dto"
	"github.com/radieske/coinflip-platform-poc/internal/wallet-service/repo"
)

type memRepo struct {
	balances map[string]int64
}

func newMemRepo() *memRepo { return &memRepo{balances: make(map[string]int64)} }

func rkey(userID, currency string) string { return userID + "/" + currency }

func (m *memRepo) GetOrCreateAccount(_ context.Context, userID, currency string) (string, int64, error) {
	k := rkey(userID, currency)
	if _, ok := m.balances[k]; !ok {
		m.balances[k] = 0
	}
	return "acc-" + k, m.balances[k], nil
}

func (m *memRepo) Withdraw(_ context.Context, userID, currency string, amount int64, _ string) (int64, error) {
	k := rkey(userID, currency)
	bal, ok := m.balances[k]
	if !ok {
		return 0, repo.ErrNotFound
	}
	if bal < amount {
		return 0, repo.ErrInsufficientFunds
	}
	m.balances[k] = bal - amount
	return m.balances[k], nil
}

func (m *memRepo) Deposit(_ context.Context, userID, currency string, amount int64, _ string) (int64, error) {
	k := rkey(userID, currency)
	m.balances[k] += amount
	return m.balances[k], nil
}

func newTestServer(t *testing.T, r Repo) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(zap.NewNop(), r).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return res
}

func TestBalanceCreatesAccount(t *testing.T) {
	srv := newTestServer(t, newMemRepo())

	res, err := http.Get(srv.URL + "/ledger/balance?userId=alice&currency=impactor:dollars")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out dto.BalanceResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, "alice", out.UserID)
	assert.NotEmpty(t, out.AccountID)
	assert.Zero(t, out.BalanceCents)
}

func TestBalanceRequiresParams(t *testing.T) {
	srv := newTestServer(t, newMemRepo())

	res, err := http.Get(srv.URL + "/ledger/balance?userId=alice")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestWithdrawDebits(t *testing.T) {
	r := newMemRepo()
	r.balances[rkey("alice", "impactor:dollars")] = 500
	srv := newTestServer(t, r)

	res := postJSON(t, srv.URL+"/ledger/withdraw", dto.WithdrawRequest{
		UserID: "alice", Currency: "impactor:dollars", AmountCents: 200,
	})
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out dto.MoveResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, int64(300), out.BalanceCents)
}

func TestWithdrawInsufficientFundsConflict(t *testing.T) {
	r := newMemRepo()
	r.balances[rkey("alice", "impactor:dollars")] = 100
	srv := newTestServer(t, r)

	res := postJSON(t, srv.URL+"/ledger/withdraw", dto.WithdrawRequest{
		UserID: "alice", Currency: "impactor:dollars", AmountCents: 200,
	})
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestWithdrawUnknownAccountNotFound(t *testing.T) {
	srv := newTestServer(t, newMemRepo())

	res := postJSON(t, srv.URL+"/ledger/withdraw", dto.WithdrawRequest{
		UserID: "ghost", Currency: "impactor:dollars", AmountCents: 100,
	})
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestWithdrawValidatesPayload(t *testing.T) {
	srv := newTestServer(t, newMemRepo())

	res := postJSON(t, srv.URL+"/ledger/withdraw", dto.WithdrawRequest{
		UserID: "alice", Currency: "impactor:dollars", AmountCents: 0,
	})
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postJSON(t, srv.URL+"/ledger/withdraw", dto.WithdrawRequest{
		Currency: "impactor:dollars", AmountCents: 100,
	})
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDepositCredits(t *testing.T) {
	r := newMemRepo()
	srv := newTestServer(t, r)

	res := postJSON(t, srv.URL+"/ledger/deposit", dto.DepositRequest{
		UserID: "bob", Currency: "impactor:credit", AmountCents: 750,
	})
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out dto.MoveResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, int64(750), out.BalanceCents)
	assert.Equal(t, int64(750), r.balances[rkey("bob", "impactor:credit")])
}

func TestMoveEndpointsRequirePost(t *testing.T) {
	srv := newTestServer(t, newMemRepo())

	for _, path := range []string{"/ledger/withdraw", "/ledger/deposit"} {
		res, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode, path)
	}
}
