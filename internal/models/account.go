package models

import "time"

// Account is the credential record: one row per registered identity.
// All security state (password hash, pending one-time codes, lockout
// counters, current session fingerprint) lives on this single record so
// every mutation can be a single conditional UPDATE.
type Account struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`

	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role"`
	Active        bool   `json:"active"`

	PasswordHash string `json:"-"`

	// registration verification code, present only while pending
	OTP       *string    `json:"-"`
	OTPExpiry *time.Time `json:"-"`

	// login confirmation code, present only while pending
	LoginOTP       *string    `json:"-"`
	LoginOTPExpiry *time.Time `json:"-"`

	// password reset: only the sha256 of the mailed token is stored
	ResetTokenHash   *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	// per-login random secret embedded in issued bearer tokens;
	// replacing it invalidates every previously issued token
	SessionFingerprint *string    `json:"-"`
	PasswordChangedAt  *time.Time `json:"-"`

	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`

	LastLogin *time.Time `json:"last_login,omitempty"`

	Profile Profile `json:"profile"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Profile struct {
	Avatar  string `json:"avatar,omitempty"`
	Phone   string `json:"phone,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

// IsLocked reports whether the lockout window is still open at the given instant.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// ChangedPasswordAfter reports whether the password was changed after a
// token issued at the given unix timestamp (seconds).
func (a *Account) ChangedPasswordAfter(issuedAtUnix int64) bool {
	if a.PasswordChangedAt == nil {
		return false
	}
	return issuedAtUnix < a.PasswordChangedAt.Unix()
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

// ProfileUpdate carries the mutable profile fields of update-me.
// Nil pointers mean "leave unchanged".
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	Country   *string `json:"country,omitempty"`
	ZipCode   *string `json:"zip_code,omitempty"`
}
