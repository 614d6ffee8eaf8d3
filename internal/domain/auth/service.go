package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/roamgrid/roamgrid/pkg/errors"
)

// Service exposes account workflows. The request authorizer does not go
// through this interface; it talks to the Codec, Guard, and Repository
// directly so that a deny decision never allocates more than it must.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Session(ctx context.Context, credential string) (*UserView, error)
	GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error)
	GoogleCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error)
	Logout(ctx context.Context, userID int64) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	RequestEmailVerification(ctx context.Context, userID int64) (string, error)
	VerifyEmail(ctx context.Context, token string) error
	Profile(ctx context.Context, userID int64) (UserView, error)
	UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (UserView, error)
	SaveAvatar(ctx context.Context, userID int64, data []byte, mimeType string) (string, error)
	WalletNonce(ctx context.Context) (string, error)
	ConnectWallet(ctx context.Context, userID int64, address, nonce string) error
	DisconnectWallet(ctx context.Context, userID int64) error
	ListUsers(ctx context.Context, limit, offset int) ([]UserView, error)
	UpdateRole(ctx context.Context, userID int64, role string) error
}

type service struct {
	cfg     Config
	repo    Repository
	codec   *Codec
	nonces  NonceStore
	avatars AvatarStorage
	logger  *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, codec *Codec, nonces NonceStore, avatars AvatarStorage, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		repo:    repo,
		codec:   codec,
		nonces:  nonces,
		avatars: avatars,
		logger:  logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	if err := validatePassword(req.Password); err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	_, exists, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to check user", err)
	}
	if exists {
		return LoginResponse{}, apperrors.Wrap("email_exists", "email already registered", nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, email, string(hashed), newReferralCode())
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return LoginResponse{}, apperrors.Wrap("email_exists", "email already registered", err)
		}
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to create user", err)
	}
	return s.buildLoginResponse(user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "password cannot be empty", nil)
	}
	user, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch user", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	return s.buildLoginResponse(user), nil
}

// Session resolves the current user from a credential cookie. A missing or
// invalid credential is not an error here: the endpoint reports "no user"
// so the frontend can render the logged-out state.
func (s *service) Session(ctx context.Context, credential string) (*UserView, error) {
	if credential == "" {
		return nil, nil
	}
	claims, err := s.codec.Verify(credential)
	if err != nil {
		return nil, nil
	}
	user, found, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Wrap("auth_error", "failed to load user", err)
	}
	if !found {
		return nil, nil
	}
	view := toView(user)
	return &view, nil
}

func (s *service) Profile(ctx context.Context, userID int64) (UserView, error) {
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return UserView{}, apperrors.Wrap("auth_error", "failed to load profile", err)
	}
	if !found {
		return UserView{}, apperrors.Wrap("user_not_found", "user not found", nil)
	}
	return toView(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (UserView, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Language = strings.TrimSpace(update.Language)
	if update.Name == "" {
		return UserView{}, apperrors.Wrap("invalid_input", "name cannot be empty", nil)
	}
	if len([]rune(update.Name)) > 64 {
		return UserView{}, apperrors.Wrap("invalid_input", "name cannot exceed 64 characters", nil)
	}
	user, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return UserView{}, apperrors.Wrap("auth_error", "failed to update profile", err)
	}
	return toView(user), nil
}

const maxAvatarBytes = 2 << 20

func (s *service) SaveAvatar(ctx context.Context, userID int64, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", apperrors.Wrap("invalid_input", "avatar file is empty", nil)
	}
	if len(data) > maxAvatarBytes {
		return "", apperrors.Wrap("invalid_input", "avatar exceeds 2MB", nil)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", apperrors.Wrap("invalid_input", "avatar must be an image", nil)
	}
	key := fmt.Sprintf("avatars/%d/%s", userID, uuid.NewString())
	if err := s.avatars.Put(ctx, key, data, mimeType); err != nil {
		return "", apperrors.Wrap("storage_error", "failed to store avatar", err)
	}
	if err := s.repo.SetAvatar(ctx, userID, key); err != nil {
		return "", apperrors.Wrap("auth_error", "failed to save avatar reference", err)
	}
	return key, nil
}

func (s *service) WalletNonce(ctx context.Context) (string, error) {
	nonce := uuid.NewString()
	if err := s.nonces.Put(ctx, nonce, s.cfg.WalletTTL); err != nil {
		return "", apperrors.Wrap("auth_error", "failed to store wallet nonce", err)
	}
	return nonce, nil
}

func (s *service) ConnectWallet(ctx context.Context, userID int64, address, nonce string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return apperrors.Wrap("invalid_input", "wallet address is required", nil)
	}
	ok, err := s.nonces.Take(ctx, nonce)
	if err != nil {
		return apperrors.Wrap("auth_error", "failed to check wallet nonce", err)
	}
	if !ok {
		return apperrors.Wrap("invalid_nonce", "wallet nonce missing or already used", nil)
	}
	owner, found, err := s.repo.GetByWallet(ctx, address)
	if err != nil {
		return apperrors.Wrap("auth_error", "failed to check wallet owner", err)
	}
	if found && owner.ID != userID {
		return apperrors.Wrap("wallet_taken", "this wallet is already connected to another account", nil)
	}
	if err := s.repo.SetWallet(ctx, userID, address); err != nil {
		return apperrors.Wrap("auth_error", "failed to connect wallet", err)
	}
	return nil
}

func (s *service) DisconnectWallet(ctx context.Context, userID int64) error {
	if err := s.repo.SetWallet(ctx, userID, ""); err != nil {
		return apperrors.Wrap("auth_error", "failed to disconnect wallet", err)
	}
	return nil
}

func (s *service) ListUsers(ctx context.Context, limit, offset int) ([]UserView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap("auth_error", "failed to list users", err)
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, toView(u))
	}
	return views, nil
}

func (s *service) UpdateRole(ctx context.Context, userID int64, role string) error {
	if !ValidRole(role) {
		return apperrors.Wrap("invalid_input", "unknown role", nil)
	}
	if _, found, err := s.repo.GetByID(ctx, userID); err != nil {
		return apperrors.Wrap("auth_error", "failed to load user", err)
	} else if !found {
		return apperrors.Wrap("user_not_found", "user not found", nil)
	}
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return apperrors.Wrap("auth_error", "failed to update role", err)
	}
	return nil
}

func (s *service) buildLoginResponse(user User) LoginResponse {
	return LoginResponse{
		Credential: s.codec.Issue(user.ID, user.Role, s.cfg.TokenTTL),
		User:       toView(user),
	}
}

func toView(user User) UserView {
	return UserView{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           user.Role,
		ConfirmedEmail: user.ConfirmedEmail,
		WalletAddress:  user.WalletAddress,
		Points:         user.Points,
		ReferralCode:   user.ReferralCode,
		Language:       user.Language,
		AvatarKey:      user.AvatarKey,
		CreatedAt:      user.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
