package userrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
)

const userColumns = `id, email, name, role, password_hash, confirmed_email,
	COALESCE(wallet_address, ''), points, referral_code, language, avatar_key,
	created_at, updated_at`

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new user row.
func (r *PostgresRepository) Create(ctx context.Context, email, passwordHash, referralCode string) (auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, referral_code, role)
		VALUES ($1, $2, $3, 'user')
		RETURNING `+userColumns+`
	`, email, passwordHash, referralCode)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.User{}, auth.ErrEmailExists
		}
		return auth.User{}, err
	}
	return user, nil
}

// GetByEmail fetches a user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (auth.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

// GetByWallet fetches the account holding a wallet address.
func (r *PostgresRepository) GetByWallet(ctx context.Context, address string) (auth.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = $1 LIMIT 1`, address)
}

// List returns users ordered by id.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]auth.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile writes the self-service profile fields.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, update auth.ProfileUpdate) (auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, language = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, update.Name, update.Language)
	return scanUser(row)
}

// SetConfirmedEmail marks the email address as verified.
func (r *PostgresRepository) SetConfirmedEmail(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET confirmed_email = TRUE, updated_at = now() WHERE id = $1`, id)
}

// SetPassword replaces the password hash.
func (r *PostgresRepository) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

// SetWallet stores or clears the wallet address.
func (r *PostgresRepository) SetWallet(ctx context.Context, id int64, address string) error {
	if address == "" {
		return r.exec(ctx, `UPDATE users SET wallet_address = NULL, updated_at = now() WHERE id = $1`, id)
	}
	return r.exec(ctx, `UPDATE users SET wallet_address = $2, updated_at = now() WHERE id = $1`, id, address)
}

// SetAvatar stores the avatar object key.
func (r *PostgresRepository) SetAvatar(ctx context.Context, id int64, key string) error {
	return r.exec(ctx, `UPDATE users SET avatar_key = $2, updated_at = now() WHERE id = $1`, id, key)
}

// SetRole updates the account role.
func (r *PostgresRepository) SetRole(ctx context.Context, id int64, role string) error {
	return r.exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, role)
}

// GetIdentity returns an OAuth identity by provider and subject.
func (r *PostgresRepository) GetIdentity(ctx context.Context, provider, providerSubject string) (auth.ProviderIdentity, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM user_identities
		WHERE provider = $1 AND provider_subject = $2
		LIMIT 1
	`, provider, providerSubject)
	if err != nil {
		return auth.ProviderIdentity{}, false, err
	}
	defer rows.Close()
	return scanOneIdentity(rows)
}

// GetIdentityByUser returns an OAuth identity by user and provider.
func (r *PostgresRepository) GetIdentityByUser(ctx context.Context, userID int64, provider string) (auth.ProviderIdentity, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM user_identities
		WHERE user_id = $1 AND provider = $2
		LIMIT 1
	`, userID, provider)
	if err != nil {
		return auth.ProviderIdentity{}, false, err
	}
	defer rows.Close()
	return scanOneIdentity(rows)
}

// UpsertIdentity stores or updates the OAuth identity mapping.
func (r *PostgresRepository) UpsertIdentity(ctx context.Context, identity auth.ProviderIdentity) (auth.ProviderIdentity, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_identities (user_id, provider, provider_subject, provider_email, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_subject) DO UPDATE SET
			provider_email = CASE WHEN EXCLUDED.provider_email <> '' THEN EXCLUDED.provider_email ELSE user_identities.provider_email END,
			refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE user_identities.refresh_token END,
			updated_at = now()
		RETURNING id, user_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
	`, identity.UserID, identity.Provider, identity.ProviderSubject, identity.ProviderEmail, identity.RefreshToken)
	return scanIdentity(row)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (auth.User, bool, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return auth.User{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return auth.User{}, false, rows.Err()
	}
	user, err := scanUser(rows)
	if err != nil {
		return auth.User{}, false, err
	}
	return user, true, rows.Err()
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (auth.User, error) {
	var user auth.User
	var created, updated time.Time
	if err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash,
		&user.ConfirmedEmail, &user.WalletAddress, &user.Points,
		&user.ReferralCode, &user.Language, &user.AvatarKey,
		&created, &updated,
	); err != nil {
		return auth.User{}, err
	}
	user.CreatedAt = created.UTC()
	user.UpdatedAt = updated.UTC()
	return user, nil
}

func scanIdentity(row rowScanner) (auth.ProviderIdentity, error) {
	var identity auth.ProviderIdentity
	var created, updated time.Time
	if err := row.Scan(
		&identity.ID, &identity.UserID, &identity.Provider, &identity.ProviderSubject,
		&identity.ProviderEmail, &identity.RefreshToken, &created, &updated,
	); err != nil {
		return auth.ProviderIdentity{}, err
	}
	identity.CreatedAt = created.UTC()
	identity.UpdatedAt = updated.UTC()
	return identity, nil
}

func scanOneIdentity(rows pgx.Rows) (auth.ProviderIdentity, bool, error) {
	if !rows.Next() {
		return auth.ProviderIdentity{}, false, rows.Err()
	}
	identity, err := scanIdentity(rows)
	if err != nil {
		return auth.ProviderIdentity{}, false, err
	}
	return identity, true, rows.Err()
}

var _ auth.Repository = (*PostgresRepository)(nil)
