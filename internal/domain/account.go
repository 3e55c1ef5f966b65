package domain

import (
	"strings"
	"time"
)

// Auth providers an account can originate from.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// Account is one identity record in the document store. The partition key is
// the normalized email; AccountID is exposed to clients and resolvable via the
// account_id-index GSI. Secret material (password hash, verification code hash)
// never leaves the server: both are excluded from JSON.
type Account struct {
	AccountID string `json:"id" dynamodbav:"account_id"`
	Email     string `json:"email" dynamodbav:"email"`
	Name      string `json:"name" dynamodbav:"name"`
	Phone     *string `json:"phone,omitempty" dynamodbav:"phone"`
	Avatar    string `json:"avatar,omitempty" dynamodbav:"avatar"`

	// PasswordHash is empty for accounts that only ever logged in through a
	// federated provider.
	PasswordHash string `json:"-" dynamodbav:"password_hash"`

	// VerificationCodeHash holds the bcrypt hash of the outstanding 6-digit
	// code. Populated between signup and verification, cleared by the
	// verified-state flip. At most one outstanding code per account.
	VerificationCodeHash string `json:"-" dynamodbav:"verification_code_hash"`

	Verified bool `json:"verified" dynamodbav:"verified"`

	Provider      string `json:"provider,omitempty" dynamodbav:"provider"`
	GoogleID      string `json:"-" dynamodbav:"google_id"`
	GoogleEmail   string `json:"-" dynamodbav:"google_email"`
	FacebookID    string `json:"-" dynamodbav:"facebook_id"`
	FacebookEmail string `json:"-" dynamodbav:"facebook_email"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// HasLocalCredential reports whether the account can authenticate with a password.
func (a *Account) HasLocalCredential() bool { return a.PasswordHash != "" }

// SignupRequest is the body of POST /api/user/register.
type SignupRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Phone    *string `json:"phone" validate:"omitempty,e164"`
}

// LoginRequest is the body of POST /api/user/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// VerifyRequest is the body of PUT /api/user/verify.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// NormalizeEmail lowercases and trims an email address. Every read and write
// boundary of the account store goes through this, so two spellings of the
// same address can never address two records.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
