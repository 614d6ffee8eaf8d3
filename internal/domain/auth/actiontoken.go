package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/roamgrid/roamgrid/pkg/errors"
)

// Action tokens are short-lived JWTs sent over email for password resets
// and email confirmation. They are distinct from the compact session
// credential, whose wire format is fixed.
const (
	actionPasswordReset = "password_reset"
	actionVerifyEmail   = "verify_email"

	actionTokenTTL = time.Hour
)

type actionClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Action string `json:"action"`
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return "", apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	user, found, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return "", apperrors.Wrap("auth_error", "failed to fetch user", err)
	}
	if !found {
		// Do not reveal whether the address is registered.
		return "", nil
	}
	return s.signActionToken(user.ID, actionPasswordReset)
}

func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.parseActionToken(token, actionPasswordReset)
	if err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	if err := s.repo.SetPassword(ctx, userID, string(hashed)); err != nil {
		return apperrors.Wrap("auth_error", "failed to update password", err)
	}
	return nil
}

func (s *service) RequestEmailVerification(ctx context.Context, userID int64) (string, error) {
	if _, found, err := s.repo.GetByID(ctx, userID); err != nil {
		return "", apperrors.Wrap("auth_error", "failed to load user", err)
	} else if !found {
		return "", apperrors.Wrap("user_not_found", "user not found", nil)
	}
	return s.signActionToken(userID, actionVerifyEmail)
}

func (s *service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.parseActionToken(token, actionVerifyEmail)
	if err != nil {
		return err
	}
	if err := s.repo.SetConfirmedEmail(ctx, userID); err != nil {
		return apperrors.Wrap("auth_error", "failed to confirm email", err)
	}
	return nil
}

func (s *service) signActionToken(userID int64, action string) (string, error) {
	now := time.Now()
	claims := actionClaims{
		UserID: userID,
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(actionTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap("auth_error", "failed to sign action token", err)
	}
	return signed, nil
}

func (s *service) parseActionToken(token, action string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(token, &actionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, apperrors.Wrap("invalid_token", "action token validation failed", err)
	}
	claims, ok := parsed.Claims.(*actionClaims)
	if !ok || !parsed.Valid {
		return 0, apperrors.Wrap("invalid_token", "action token invalid", nil)
	}
	if claims.Action != action {
		return 0, apperrors.Wrap("invalid_token", "action token type mismatch", nil)
	}
	return claims.UserID, nil
}
