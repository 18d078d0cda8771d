package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
)

var errTestMail = errors.New("smtp down")

// fakeAccountRepo mirrors the conditional-update semantics of the
// Postgres repository so the services can be exercised without a
// database.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]*models.Account{}}
}

func copyAccount(a *models.Account) *models.Account {
	c := *a
	return &c
}

func (f *fakeAccountRepo) Create(a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return repositories.ErrDuplicateEmail
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.accounts[a.ID] = copyAccount(a)
	return nil
}

func (f *fakeAccountRepo) GetByID(id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	return copyAccount(a), nil
}

func (f *fakeAccountRepo) GetByEmail(email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if strings.EqualFold(a.Email, email) {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) GetByResetTokenHash(hash string, now time.Time) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ResetTokenHash != nil && *a.ResetTokenHash == hash &&
			a.ResetTokenExpiry != nil && a.ResetTokenExpiry.After(now) {
			return copyAccount(a), nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) EmailExists(email, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID != excludeID && strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccountRepo) List(role string) ([]*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*models.Account
	for _, a := range f.accounts {
		if role == "" || a.Role == role {
			res = append(res, copyAccount(a))
		}
	}
	return res, nil
}

func (f *fakeAccountRepo) PageList(q repositories.PageQuery) ([]*models.Account, int, error) {
	all, err := f.List("user")
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	start := (q.Page - 1) * q.Limit
	if start >= total {
		return nil, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeAccountRepo) UpdateProfile(id string, upd models.ProfileUpdate, unverify bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.FirstName, upd.FirstName)
	set(&a.LastName, upd.LastName)
	set(&a.Email, upd.Email)
	set(&a.Profile.Avatar, upd.Avatar)
	set(&a.Profile.Phone, upd.Phone)
	set(&a.Profile.City, upd.City)
	set(&a.Profile.State, upd.State)
	set(&a.Profile.Country, upd.Country)
	set(&a.Profile.ZipCode, upd.ZipCode)
	if unverify {
		a.EmailVerified = false
	}
	a.UpdatedAt = time.Now()
	return copyAccount(a), nil
}

func (f *fakeAccountRepo) SetActive(id string, active bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	a.Active = active
	return copyAccount(a), nil
}

func (f *fakeAccountRepo) ExistingIDs(ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []string
	for _, id := range ids {
		if _, ok := f.accounts[id]; ok {
			res = append(res, id)
		}
	}
	return res, nil
}

func (f *fakeAccountRepo) Delete(ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.accounts[id]; ok {
			delete(f.accounts, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeAccountRepo) IssueRegistrationOTP(id, otp string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.OTP = &otp
		a.OTPExpiry = &expiry
	}
	return nil
}

func (f *fakeAccountRepo) IssueLoginOTP(id, otp string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.LoginOTP = &otp
		a.LoginOTPExpiry = &expiry
	}
	return nil
}

func (f *fakeAccountRepo) ConsumeRegistrationOTP(id, otp string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok || a.OTP == nil || *a.OTP != otp || a.OTPExpiry == nil || !a.OTPExpiry.After(now) {
		return false, nil
	}
	a.EmailVerified = true
	a.OTP, a.OTPExpiry = nil, nil
	return true, nil
}

func (f *fakeAccountRepo) ConsumeLoginOTP(id, otp string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok || a.LoginOTP == nil || *a.LoginOTP != otp || a.LoginOTPExpiry == nil || !a.LoginOTPExpiry.After(now) {
		return false, nil
	}
	a.LoginOTP, a.LoginOTPExpiry = nil, nil
	return true, nil
}

func (f *fakeAccountRepo) RecordFailedLogin(id string, now time.Time, threshold int, lockFor time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil
	}
	if a.LockedUntil != nil && a.LockedUntil.Before(now) {
		// stale lock: restart the counter at this failure
		a.FailedAttempts = 1
		a.LockedUntil = nil
		return nil
	}
	a.FailedAttempts++
	if a.FailedAttempts >= threshold {
		until := now.Add(lockFor)
		a.LockedUntil = &until
	}
	return nil
}

func (f *fakeAccountRepo) RecordSuccessfulLogin(id, fingerprint string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil
	}
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.SessionFingerprint = &fingerprint
	a.ResetTokenHash, a.ResetTokenExpiry = nil, nil
	last := now
	a.LastLogin = &last
	return nil
}

func (f *fakeAccountRepo) IssueResetToken(id, tokenHash string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.ResetTokenHash = &tokenHash
		a.ResetTokenExpiry = &expiry
	}
	return nil
}

func (f *fakeAccountRepo) ClearResetToken(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.ResetTokenHash, a.ResetTokenExpiry = nil, nil
	}
	return nil
}

func (f *fakeAccountRepo) ResetPassword(id, passwordHash, fingerprint, tokenHash string, changedAt, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok || a.ResetTokenHash == nil || *a.ResetTokenHash != tokenHash ||
		a.ResetTokenExpiry == nil || !a.ResetTokenExpiry.After(now) {
		return false, nil
	}
	a.PasswordHash = passwordHash
	a.PasswordChangedAt = &changedAt
	a.SessionFingerprint = &fingerprint
	a.ResetTokenHash, a.ResetTokenExpiry = nil, nil
	return true, nil
}

func (f *fakeAccountRepo) ChangePassword(id, passwordHash, fingerprint string, changedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.PasswordHash = passwordHash
		a.PasswordChangedAt = &changedAt
		a.SessionFingerprint = &fingerprint
	}
	return nil
}

// fakeEmailService records outgoing mail and can be told to fail.
type fakeEmailService struct {
	mu        sync.Mutex
	fail      bool
	otps      []string
	resets    []string
	lastEmail string
}

func (f *fakeEmailService) SendVerificationOTP(email, name, flow, otp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errTestMail
	}
	f.otps = append(f.otps, otp)
	f.lastEmail = email
	return nil
}

func (f *fakeEmailService) SendPasswordResetToken(email, name, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errTestMail
	}
	f.resets = append(f.resets, token)
	f.lastEmail = email
	return nil
}

func (f *fakeEmailService) lastOTP() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.otps) == 0 {
		return ""
	}
	return f.otps[len(f.otps)-1]
}

func (f *fakeEmailService) lastResetToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resets) == 0 {
		return ""
	}
	return f.resets[len(f.resets)-1]
}
