package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Postgres implementa o ledger de fundos: contas por (usuário, moeda)
// e um registro de cada movimentação.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// GetOrCreateAccount retorna id e saldo da conta do usuário na moeda,
// criando a conta zerada se não existir. Transacional.
func (p *Postgres) GetOrCreateAccount(ctx context.Context, userID, currency string) (accountID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM accounts WHERE user_id=$1 AND currency=$2`,
		userID, currency).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO accounts(id, user_id, currency, balance_cents, version) VALUES($1,$2,$3,0,1)`,
			id, userID, currency); err != nil {
			return "", 0, err
		}
		bal = 0
	} else if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, bal, nil
}

// Withdraw debita o saldo com lock pessimista na linha da conta.
// Saldo insuficiente não movimenta nada.
func (p *Postgres) Withdraw(ctx context.Context, userID, currency string, amount int64, externalRef string) (newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM accounts WHERE user_id=$1 AND currency=$2 FOR UPDATE`,
		userID, currency).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if bal < amount {
		return 0, ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`,
		amount, id); err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO account_ledger(account_id, operation_type, amount_cents, description) VALUES($1,'DEBIT',$2,$3)`,
		id, amount, "withdraw:"+externalRef); err != nil {
		return 0, err
	}

	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM accounts WHERE id=$1`, id).Scan(&newBalance); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Deposit credita o saldo, criando a conta se preciso, e registra a
// operação no ledger.
func (p *Postgres) Deposit(ctx context.Context, userID, currency string, amount int64, externalRef string) (newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE user_id=$1 AND currency=$2 FOR UPDATE`,
		userID, currency).Scan(&id)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO accounts(id, user_id, currency, balance_cents, version) VALUES($1,$2,$3,0,1)`,
			id, userID, currency); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
		amount, id); err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO account_ledger(account_id, operation_type, amount_cents, description) VALUES($1,'CREDIT',$2,$3)`,
		id, amount, "deposit:"+externalRef); err != nil {
		return 0, err
	}

	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM accounts WHERE id=$1`, id).Scan(&newBalance); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}
