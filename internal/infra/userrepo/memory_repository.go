package userrepo

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
)

// MemoryRepository provides an in-memory user store for tests/dev.
type MemoryRepository struct {
	mu         sync.RWMutex
	users      map[int64]auth.User
	emailIndex map[string]int64
	identities map[string]auth.ProviderIdentity
	userIndex  map[string]auth.ProviderIdentity
	seq        int64
	identityID int64
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:      make(map[int64]auth.User),
		emailIndex: make(map[string]int64),
		identities: make(map[string]auth.ProviderIdentity),
		userIndex:  make(map[string]auth.ProviderIdentity),
	}
}

// Create stores the user record.
func (r *MemoryRepository) Create(_ context.Context, email, passwordHash, referralCode string) (auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emailIndex[email]; exists {
		return auth.User{}, auth.ErrEmailExists
	}
	r.seq++
	now := time.Now().UTC()
	user := auth.User{
		ID:           r.seq,
		Email:        email,
		Role:         auth.RoleUser,
		PasswordHash: passwordHash,
		ReferralCode: referralCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user
	r.emailIndex[email] = user.ID
	return user, nil
}

// GetByEmail returns a user by email.
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.emailIndex[email]; ok {
		return r.users[id], true, nil
	}
	return auth.User{}, false, nil
}

// GetByID fetches by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	return user, ok, nil
}

// GetByWallet returns the account holding a wallet address.
func (r *MemoryRepository) GetByWallet(_ context.Context, address string) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.WalletAddress != "" && strings.EqualFold(user.WalletAddress, address) {
			return user, true, nil
		}
	}
	return auth.User{}, false, nil
}

// List returns users ordered by id.
func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var users []auth.User
	for id := int64(1); id <= r.seq && len(users) < offset+limit; id++ {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	if offset >= len(users) {
		return nil, nil
	}
	return users[offset:], nil
}

// UpdateProfile writes the self-service profile fields.
func (r *MemoryRepository) UpdateProfile(_ context.Context, id int64, update auth.ProfileUpdate) (auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return auth.User{}, errors.New("user not found")
	}
	user.Name = update.Name
	user.Language = update.Language
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return user, nil
}

// SetConfirmedEmail marks the email address as verified.
func (r *MemoryRepository) SetConfirmedEmail(_ context.Context, id int64) error {
	return r.mutate(id, func(user *auth.User) { user.ConfirmedEmail = true })
}

// SetPassword replaces the password hash.
func (r *MemoryRepository) SetPassword(_ context.Context, id int64, passwordHash string) error {
	return r.mutate(id, func(user *auth.User) { user.PasswordHash = passwordHash })
}

// SetWallet stores or clears the wallet address.
func (r *MemoryRepository) SetWallet(_ context.Context, id int64, address string) error {
	return r.mutate(id, func(user *auth.User) { user.WalletAddress = address })
}

// SetAvatar stores the avatar object key.
func (r *MemoryRepository) SetAvatar(_ context.Context, id int64, key string) error {
	return r.mutate(id, func(user *auth.User) { user.AvatarKey = key })
}

// SetRole updates the account role.
func (r *MemoryRepository) SetRole(_ context.Context, id int64, role string) error {
	return r.mutate(id, func(user *auth.User) { user.Role = role })
}

// GetIdentity returns an identity by provider and subject.
func (r *MemoryRepository) GetIdentity(_ context.Context, provider, providerSubject string) (auth.ProviderIdentity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[identityKey(provider, providerSubject)]
	return identity, ok, nil
}

// GetIdentityByUser returns an identity by user and provider.
func (r *MemoryRepository) GetIdentityByUser(_ context.Context, userID int64, provider string) (auth.ProviderIdentity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.userIndex[userIdentityKey(provider, userID)]
	return identity, ok, nil
}

// UpsertIdentity stores or updates the identity mapping.
func (r *MemoryRepository) UpsertIdentity(_ context.Context, identity auth.ProviderIdentity) (auth.ProviderIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity.UserID == 0 {
		return auth.ProviderIdentity{}, errors.New("userID is required")
	}
	key := identityKey(identity.Provider, identity.ProviderSubject)
	existing, ok := r.identities[key]
	if ok {
		if identity.RefreshToken != "" {
			existing.RefreshToken = identity.RefreshToken
		}
		if identity.ProviderEmail != "" {
			existing.ProviderEmail = identity.ProviderEmail
		}
		existing.UpdatedAt = time.Now().UTC()
		r.identities[key] = existing
		r.userIndex[userIdentityKey(existing.Provider, existing.UserID)] = existing
		return existing, nil
	}
	r.identityID++
	identity.ID = r.identityID
	now := time.Now().UTC()
	identity.CreatedAt = now
	identity.UpdatedAt = now
	r.identities[key] = identity
	r.userIndex[userIdentityKey(identity.Provider, identity.UserID)] = identity
	return identity, nil
}

func (r *MemoryRepository) mutate(id int64, fn func(*auth.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return errors.New("user not found")
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

var _ auth.Repository = (*MemoryRepository)(nil)

func identityKey(provider, subject string) string {
	return provider + ":" + subject
}

func userIdentityKey(provider string, userID int64) string {
	return provider + ":" + strconv.FormatInt(userID, 10)
}
