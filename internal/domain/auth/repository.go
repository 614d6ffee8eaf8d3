package auth

import (
	"context"
	"time"
)

// Repository abstracts user persistence.
type Repository interface {
	Create(ctx context.Context, email, passwordHash, referralCode string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	GetByID(ctx context.Context, id int64) (User, bool, error)
	GetByWallet(ctx context.Context, address string) (User, bool, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (User, error)
	SetConfirmedEmail(ctx context.Context, id int64) error
	SetPassword(ctx context.Context, id int64, passwordHash string) error
	SetWallet(ctx context.Context, id int64, address string) error
	SetAvatar(ctx context.Context, id int64, key string) error
	SetRole(ctx context.Context, id int64, role string) error

	GetIdentity(ctx context.Context, provider, providerSubject string) (ProviderIdentity, bool, error)
	GetIdentityByUser(ctx context.Context, userID int64, provider string) (ProviderIdentity, bool, error)
	UpsertIdentity(ctx context.Context, identity ProviderIdentity) (ProviderIdentity, error)
}

// ProviderIdentity links an account to an external OAuth provider.
type ProviderIdentity struct {
	ID              int64
	UserID          int64
	Provider        string
	ProviderSubject string
	ProviderEmail   string
	RefreshToken    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NonceStore keeps short-lived single-use nonces for the wallet-connect
// flow. Take consumes the nonce: it reports true at most once per Put.
type NonceStore interface {
	Put(ctx context.Context, nonce string, ttl time.Duration) error
	Take(ctx context.Context, nonce string) (bool, error)
}

// AvatarStorage persists profile pictures.
type AvatarStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) error
	Delete(ctx context.Context, key string) error
}
