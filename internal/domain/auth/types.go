package auth

import "time"

// Roles carried inside a credential.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the known role names.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleModerator || role == RoleAdmin
}

// Config drives the authentication core. Secret signs both session
// credentials and CSRF nonces.
type Config struct {
	Secret     string
	TokenTTL   time.Duration
	CSRFTTL    time.Duration
	WalletTTL  time.Duration
	Production bool
	Google     GoogleConfig
}

// GoogleConfig holds OAuth settings for Google sign-in.
type GoogleConfig struct {
	ClientID             string
	ClientSecret         string
	RedirectURL          string
	TokenEncryptionKey   string
	PostLoginRedirectURL string
}

// Claims are the fields encoded in a signed credential.
type Claims struct {
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

// User is the full account projection loaded for authenticated-tier
// requests.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	PasswordHash   string    `json:"-"`
	ConfirmedEmail bool      `json:"confirmedEmail"`
	WalletAddress  string    `json:"walletAddress,omitempty"`
	Points         int64     `json:"points"`
	ReferralCode   string    `json:"referralCode,omitempty"`
	Language       string    `json:"language,omitempty"`
	AvatarKey      string    `json:"avatarKey,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ProfileComplete reports whether the account may perform mutations that
// require a confirmed email and a display name.
func (u User) ProfileComplete() bool {
	return u.ConfirmedEmail && u.Name != ""
}

// Identity is the request-scoped authenticated principal handed to
// handlers. Admin-tier requests carry only ID and Role; authenticated-tier
// requests also carry the full user projection. An Identity is owned by a
// single request and never shared.
type Identity struct {
	ID   int64
	Role string
	User *User
}

// Elevated reports whether the identity may access admin-tier routes.
func (i Identity) Elevated() bool {
	return i.Role == RoleAdmin || i.Role == RoleModerator
}

// RegisterRequest captures the registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the freshly issued credential with the user view.
type LoginResponse struct {
	Credential string   `json:"-"`
	User       UserView `json:"user"`
}

// UserView trims sensitive fields for JSON responses.
type UserView struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	ConfirmedEmail bool      `json:"confirmedEmail"`
	WalletAddress  string    `json:"walletAddress,omitempty"`
	Points         int64     `json:"points"`
	ReferralCode   string    `json:"referralCode,omitempty"`
	Language       string    `json:"language,omitempty"`
	AvatarKey      string    `json:"avatarKey,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ProfileUpdate carries the self-service profile fields.
type ProfileUpdate struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}
