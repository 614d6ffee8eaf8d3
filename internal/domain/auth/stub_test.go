package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func newTestService(t *testing.T) (Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	cfg := Config{Secret: "test-secret", TokenTTL: time.Hour, CSRFTTL: time.Hour, WalletTTL: 5 * time.Minute}
	svc := NewService(cfg, repo, NewCodec(cfg), newMemNonces(), &memAvatars{}, newTestLogger())
	return svc, repo
}

// memRepo is an in-memory Repository test double.
type memRepo struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]User
	identities map[string]ProviderIdentity
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, users: make(map[int64]User), identities: make(map[string]ProviderIdentity)}
}

func (r *memRepo) Create(_ context.Context, email, passwordHash, referralCode string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return User{}, ErrEmailExists
		}
	}
	now := time.Now()
	user := User{
		ID:           r.nextID,
		Email:        email,
		Role:         RoleUser,
		PasswordHash: passwordHash,
		ReferralCode: referralCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return u, ok, nil
}

func (r *memRepo) GetByWallet(_ context.Context, address string) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.WalletAddress == address && address != "" {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0, len(r.users))
	for id := int64(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) UpdateProfile(_ context.Context, id int64, update ProfileUpdate) (User, error) {
	return r.mutate(id, func(u *User) {
		u.Name = update.Name
		if update.Language != "" {
			u.Language = update.Language
		}
	})
}

func (r *memRepo) SetConfirmedEmail(_ context.Context, id int64) error {
	_, err := r.mutate(id, func(u *User) { u.ConfirmedEmail = true })
	return err
}

func (r *memRepo) SetPassword(_ context.Context, id int64, passwordHash string) error {
	_, err := r.mutate(id, func(u *User) { u.PasswordHash = passwordHash })
	return err
}

func (r *memRepo) SetWallet(_ context.Context, id int64, address string) error {
	_, err := r.mutate(id, func(u *User) { u.WalletAddress = address })
	return err
}

func (r *memRepo) SetAvatar(_ context.Context, id int64, key string) error {
	_, err := r.mutate(id, func(u *User) { u.AvatarKey = key })
	return err
}

func (r *memRepo) SetRole(_ context.Context, id int64, role string) error {
	_, err := r.mutate(id, func(u *User) { u.Role = role })
	return err
}

func (r *memRepo) GetIdentity(_ context.Context, provider, providerSubject string) (ProviderIdentity, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[provider+"/"+providerSubject]
	return identity, ok, nil
}

func (r *memRepo) GetIdentityByUser(_ context.Context, userID int64, provider string) (ProviderIdentity, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.identities {
		if identity.UserID == userID && identity.Provider == provider {
			return identity, true, nil
		}
	}
	return ProviderIdentity{}, false, nil
}

func (r *memRepo) UpsertIdentity(_ context.Context, identity ProviderIdentity) (ProviderIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity.ID == 0 {
		identity.ID = int64(len(r.identities) + 1)
	}
	r.identities[identity.Provider+"/"+identity.ProviderSubject] = identity
	return identity, nil
}

var _ Repository = (*memRepo)(nil)

// memNonces is an in-memory NonceStore test double.
type memNonces struct {
	mu     sync.Mutex
	nonces map[string]time.Time
}

func newMemNonces() *memNonces {
	return &memNonces{nonces: make(map[string]time.Time)}
}

func (s *memNonces) Put(_ context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[nonce] = time.Now().Add(ttl)
	return nil
}

func (s *memNonces) Take(_ context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.nonces[nonce]
	if !ok {
		return false, nil
	}
	delete(s.nonces, nonce)
	return time.Now().Before(expiry), nil
}

var _ NonceStore = (*memNonces)(nil)

// memAvatars records stored avatar blobs.
type memAvatars struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (s *memAvatars) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = make(map[string][]byte)
	}
	s.blobs[key] = data
	return nil
}

func (s *memAvatars) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

var _ AvatarStorage = (*memAvatars)(nil)

func (r *memRepo) mutate(id int64, fn func(*User)) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return u, nil
}
