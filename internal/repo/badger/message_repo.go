package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/ivankudzin/crush/internal/domain/model"
	"github.com/ivankudzin/crush/internal/repo"
)

type MessageRepo struct {
	store *Store
}

func NewMessageRepo(store *Store) *MessageRepo {
	return &MessageRepo{store: store}
}

// Create stores msg and moves its match's last interaction to msg.CreatedAt in
// the same transaction. A match that is missing or no longer active yields
// repo.ErrNotFound.
func (r *MessageRepo) Create(_ context.Context, msg model.Message) error {
	return r.store.update(func(txn *badger.Txn) error {
		var m model.Match
		if err := getJSON(txn, matchKey(msg.MatchID), &m); err != nil {
			return err
		}
		if !m.Active() {
			return repo.ErrNotFound
		}
		m.LastInteractionAt = msg.CreatedAt
		if err := setJSON(txn, matchKey(m.ID), m); err != nil {
			return err
		}

		if err := setJSON(txn, messageKey(msg.ID), msg); err != nil {
			return err
		}
		return txn.Set(conversationKey(msg), []byte(msg.ID))
	})
}

func (r *MessageRepo) GetByID(_ context.Context, id string) (model.Message, error) {
	var msg model.Message
	err := r.store.view(func(txn *badger.Txn) error {
		return getJSON(txn, messageKey(id), &msg)
	})
	return msg, err
}

func (r *MessageRepo) ListConversation(_ context.Context, a, b string) ([]model.Message, error) {
	items := make([]model.Message, 0)
	err := r.store.view(func(txn *badger.Txn) error {
		for _, key := range keysWithPrefix(txn, conversationKeysPrefix(a, b)) {
			id, err := getString(txn, key)
			if err != nil {
				return err
			}
			var msg model.Message
			if err := getJSON(txn, messageKey(id), &msg); err != nil {
				return err
			}
			items = append(items, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MessageRepo) MarkRead(_ context.Context, id string) error {
	return r.store.update(func(txn *badger.Txn) error {
		var msg model.Message
		if err := getJSON(txn, messageKey(id), &msg); err != nil {
			return err
		}
		msg.Read = true
		return setJSON(txn, messageKey(id), msg)
	})
}

func (r *MessageRepo) Delete(_ context.Context, id string) error {
	return r.store.update(func(txn *badger.Txn) error {
		var msg model.Message
		if err := getJSON(txn, messageKey(id), &msg); err != nil {
			return err
		}
		if err := txn.Delete(conversationKey(msg)); err != nil {
			return err
		}
		return txn.Delete(messageKey(id))
	})
}
