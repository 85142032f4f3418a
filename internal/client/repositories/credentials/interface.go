package credentials

import (
	"context"

	"github.com/medcareai/medcare-client/internal/client/models"
)

// Repository is the raw key/value surface over the persisted credential
// table. All operations are idempotent; Get returns (nil, nil) for a missing
// key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// StoredPair is the persisted (token, profile) tuple. The two halves are
// always written and cleared together; a profile must never outlive its
// token.
type StoredPair struct {
	Token string
	User  *models.User
}

// Store is the typed credential store consumed by the session service and
// the request gateway. It is the only component that touches persisted
// storage.
type Store interface {
	// Load returns the persisted pair, or nil when no token is stored.
	Load(ctx context.Context) (*StoredPair, error)

	// Save persists both halves of the pair atomically.
	Save(ctx context.Context, pair *StoredPair) error

	// SaveUser re-persists the profile half only, leaving the token as is.
	// It fails if no token is currently stored.
	SaveUser(ctx context.Context, user *models.User) error

	// Token returns the stored bearer token, or "" when absent.
	Token(ctx context.Context) (string, error)

	// Clear removes both halves atomically. Clearing an empty store is a
	// no-op.
	Clear(ctx context.Context) error
}
