package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/medcareai/medcare-client/internal/client/models"
	"github.com/medcareai/medcare-client/internal/common"
	"github.com/medcareai/medcare-client/internal/dbx"
)

// SQLiteStore is the Store implementation over the local client database.
//
// The token and profile live under the fixed keys common.AuthTokenKey and
// common.UserKey. Both halves are mutated inside a single transaction, so a
// reader can never observe a profile without its token. The storage layer
// itself offers no multi-key atomicity guarantees to other processes beyond
// what the transaction provides.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(ctx context.Context) (*StoredPair, error) {
	repo := NewSQLiteRepository(s.db)

	tok, err := repo.Get(ctx, common.AuthTokenKey)
	if err != nil {
		return nil, err
	}
	if len(tok) == 0 {
		return nil, nil
	}

	pair := &StoredPair{Token: string(tok)}

	raw, err := repo.Get(ctx, common.UserKey)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			// A corrupt cached profile is not fatal: the token is still the
			// source of truth and the profile will be refetched.
			return pair, nil
		}
		pair.User = &u
	}

	return pair, nil
}

func (s *SQLiteStore) Save(ctx context.Context, pair *StoredPair) error {
	if pair == nil || pair.Token == "" {
		return fmt.Errorf("%w: refusing to persist an empty credential", common.ErrStorage)
	}

	var raw []byte
	if pair.User != nil {
		var err error
		raw, err = json.Marshal(pair.User)
		if err != nil {
			return fmt.Errorf("marshal user profile: %w", err)
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.AuthTokenKey, []byte(pair.Token)); err != nil {
			return err
		}
		if raw == nil {
			return repo.Delete(ctx, common.UserKey)
		}
		return repo.Set(ctx, common.UserKey, raw)
	})
}

func (s *SQLiteStore) SaveUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("%w: nil user profile", common.ErrStorage)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user profile: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)

		tok, err := repo.Get(ctx, common.AuthTokenKey)
		if err != nil {
			return err
		}
		if len(tok) == 0 {
			// A profile without a token must never be persisted.
			return common.ErrorUnauthorized
		}

		return repo.Set(ctx, common.UserKey, raw)
	})
}

func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	repo := NewSQLiteRepository(s.db)
	tok, err := repo.Get(ctx, common.AuthTokenKey)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		// Profile first, then token: even a torn clear can not leave a
		// profile behind without its token.
		if err := repo.Delete(ctx, common.UserKey); err != nil {
			return err
		}
		return repo.Delete(ctx, common.AuthTokenKey)
	})
}
