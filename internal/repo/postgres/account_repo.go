package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, account model.Account) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO accounts (id, email, name, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5)
`, account.ID, account.Email, account.Name, account.PasswordHash, account.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "") {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (model.Account, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *AccountRepo) getOne(ctx context.Context, where string, arg string) (model.Account, error) {
	var account model.Account
	err := r.pool.QueryRow(ctx, `
SELECT id, email, name, password_hash, created_at
FROM accounts
`+where, arg).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, repo.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}
