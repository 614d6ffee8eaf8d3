package noncestore

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
)

// ValkeyStore keeps wallet-connect nonces in Valkey so that every replica
// sees the same single-use state.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a Valkey-backed nonce store.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "wallet:nonce"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Put stores the nonce with a TTL.
func (s *ValkeyStore) Put(ctx context.Context, nonce string, ttl time.Duration) error {
	cmd := s.client.B().Set().Key(s.key(nonce)).Value("1").Ex(ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

// Take consumes the nonce. GETDEL makes the check-and-delete atomic across
// replicas.
func (s *ValkeyStore) Take(ctx context.Context, nonce string) (bool, error) {
	cmd := s.client.B().Getdel().Key(s.key(nonce)).Build()
	resp := s.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *ValkeyStore) key(nonce string) string {
	return s.prefix + ":" + nonce
}

var _ auth.NonceStore = (*ValkeyStore)(nil)
