package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

type accountRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type AccountRepo struct {
	store *Store
}

func NewAccountRepo(store *Store) *AccountRepo {
	return &AccountRepo{store: store}
}

func (r *AccountRepo) Create(_ context.Context, account model.Account) error {
	return r.store.update(func(txn *badger.Txn) error {
		taken, err := exists(txn, accountEmailKey(account.Email))
		if err != nil {
			return err
		}
		if taken {
			return repo.ErrDuplicate
		}
		if err := setJSON(txn, accountKey(account.ID), accountRecord(account)); err != nil {
			return err
		}
		return txn.Set(accountEmailKey(account.Email), []byte(account.ID))
	})
}

func (r *AccountRepo) GetByID(_ context.Context, id string) (model.Account, error) {
	var record accountRecord
	err := r.store.view(func(txn *badger.Txn) error {
		return getJSON(txn, accountKey(id), &record)
	})
	if err != nil {
		return model.Account{}, err
	}
	return model.Account(record), nil
}

func (r *AccountRepo) GetByEmail(_ context.Context, email string) (model.Account, error) {
	var record accountRecord
	err := r.store.view(func(txn *badger.Txn) error {
		id, err := getString(txn, accountEmailKey(email))
		if err != nil {
			return err
		}
		return getJSON(txn, accountKey(id), &record)
	})
	if err != nil {
		return model.Account{}, err
	}
	return model.Account(record), nil
}
