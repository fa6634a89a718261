package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/radieske/coinflip-platform-poc/internal/flip-service/flip"
	"github.com/radieske/coinflip-platform-poc/internal/flip-service/ledger/dto"
)

// Client fala com o wallet-service (ledger de fundos) por HTTP.
// Implementa flip.Ledger.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Balance(ctx context.Context, user, currency string) (int64, error) {
	u := fmt.Sprintf("%s/ledger/balance?userId=%s&currency=%s",
		c.BaseURL, url.QueryEscape(user), url.QueryEscape(currency))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return 0, fmt.Errorf("ledger balance http %d", res.StatusCode)
	}
	var out dto.BalanceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.BalanceCents, nil
}

func (c *Client) Withdraw(ctx context.Context, user, currency string, amount int64) error {
	return c.move(ctx, "/ledger/withdraw", user, currency, amount)
}

func (c *Client) Deposit(ctx context.Context, user, currency string, amount int64) error {
	return c.move(ctx, "/ledger/deposit", user, currency, amount)
}

func (c *Client) move(ctx context.Context, path, user, currency string, amount int64) error {
	body, _ := json.Marshal(dto.MoveRequest{UserID: user, Currency: currency, AmountCents: amount})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	// 409 do wallet: o saldo mudou entre a consulta e o saque
	if res.StatusCode == http.StatusConflict {
		return flip.ErrInsufficientFunds
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("ledger %s http %d", path, res.StatusCode)
	}
	return nil
}
