package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"iconbuzzer/internal/authz"
	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
	"iconbuzzer/internal/token"
	"iconbuzzer/internal/utils"
)

const (
	otpTTL        = 10 * time.Minute
	resetTokenTTL = 10 * time.Minute

	maxFailedLogins = 5
	lockDuration    = time.Hour

	OTPFlowRegister = "register"
	OTPFlowLogin    = "login"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrBadOTPFlow         = errors.New("invalid otp type")
	ErrOTPNotRequested    = errors.New("otp was not requested or already verified")
	ErrOTPInvalid         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrResetTokenInvalid  = errors.New("reset token invalid or expired")
	ErrSamePassword       = errors.New("new password must differ from the old one")
	ErrSessionSuperseded  = errors.New("token replaced by a newer login session")
	ErrPasswordChanged    = errors.New("password recently changed")
	ErrMailDelivery       = errors.New("mail delivery failed")
)

// AuthService owns the account security flows: registration, OTP
// verification, login with lockout throttling, session tokens and
// password reset/change. Every persistent side effect of a flow is a
// single atomic write through an explicit repository update intent.
type AuthService interface {
	Register(req models.RegisterRequest) (*models.Account, error)
	SendOTP(flow, email string) (*models.Account, error)
	VerifyOTP(flow, email, otp string) (*models.Account, error)
	Login(email, password string) (string, *models.Account, error)
	ForgotPassword(email string) (*models.Account, error)
	ResetPassword(plainToken, newPassword string) (string, *models.Account, error)
	UpdatePassword(account *models.Account, oldPassword, newPassword string) (string, *models.Account, error)
	VerifyToken(tokenString string) (*models.Account, *token.Claims, error)
}

type authService struct {
	repo   repositories.AccountRepository
	emails EmailService
	hasher PasswordHasher
	issuer *token.Issuer

	// overridable in tests
	now func() time.Time
}

func NewAuthService(repo repositories.AccountRepository, emails EmailService, hasher PasswordHasher, issuer *token.Issuer) AuthService {
	return &authService{
		repo:   repo,
		emails: emails,
		hasher: hasher,
		issuer: issuer,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(req models.RegisterRequest) (*models.Account, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.repo.EmailExists(email, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, repositories.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	otp, err := utils.NewOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	expiry := s.now().Add(otpTTL)

	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		Role:         authz.RoleUser,
		Active:       true,
		OTP:          &otp,
		OTPExpiry:    &expiry,
		Profile:      models.Profile{Avatar: utils.RandomAvatarURL(email)},
	}

	// persist first, then attempt delivery; a failed mail is not fatal
	// because the code can be re-requested via sent-otp
	if err := s.repo.Create(account); err != nil {
		return nil, err
	}

	if err := s.emails.SendVerificationOTP(account.Email, account.FirstName, OTPFlowRegister, otp); err != nil {
		log.Printf("[auth][register] failed to send verification otp to %s: %v", account.Email, err)
	}

	return account, nil
}

func (s *authService) SendOTP(flow, email string) (*models.Account, error) {
	if flow != OTPFlowRegister && flow != OTPFlowLogin {
		return nil, ErrBadOTPFlow
	}
	email = normalizeEmail(email)

	account, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	// an already-verified address has nothing to verify: no code is
	// issued and no mail goes out; the caller reads EmailVerified off
	// the returned account to phrase the response
	if flow == OTPFlowRegister && account.EmailVerified {
		return account, nil
	}

	otp, err := utils.NewOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	expiry := s.now().Add(otpTTL)

	if flow == OTPFlowRegister {
		err = s.repo.IssueRegistrationOTP(account.ID, otp, expiry)
	} else {
		err = s.repo.IssueLoginOTP(account.ID, otp, expiry)
	}
	if err != nil {
		return nil, err
	}

	if err := s.emails.SendVerificationOTP(account.Email, account.FirstName, flow, otp); err != nil {
		// the stored code stays; it is re-issuable and bounded by its expiry
		log.Printf("[auth][sent-otp] failed to send %s otp to %s: %v", flow, account.Email, err)
		return nil, ErrMailDelivery
	}

	return account, nil
}

func (s *authService) VerifyOTP(flow, email, otp string) (*models.Account, error) {
	if flow != OTPFlowRegister && flow != OTPFlowLogin {
		return nil, ErrBadOTPFlow
	}
	email = normalizeEmail(email)

	account, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	var stored *string
	var storedExpiry *time.Time
	if flow == OTPFlowRegister {
		stored, storedExpiry = account.OTP, account.OTPExpiry
	} else {
		stored, storedExpiry = account.LoginOTP, account.LoginOTPExpiry
	}

	if stored == nil || storedExpiry == nil {
		return nil, ErrOTPNotRequested
	}
	if *stored != otp {
		// wrong guess leaves the stored code untouched
		return nil, ErrOTPInvalid
	}
	now := s.now()
	if !storedExpiry.After(now) {
		return nil, ErrOTPExpired
	}

	// the consuming update is conditional; a racing request that already
	// consumed the code makes this a no-op
	var ok bool
	if flow == OTPFlowRegister {
		ok, err = s.repo.ConsumeRegistrationOTP(account.ID, otp, now)
	} else {
		ok, err = s.repo.ConsumeLoginOTP(account.ID, otp, now)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOTPNotRequested
	}

	if flow == OTPFlowRegister {
		account.EmailVerified = true
	}
	log.Printf("[auth][verify-otp] ok flow=%s account=%s", flow, account.ID)
	return account, nil
}

func (s *authService) Login(email, password string) (string, *models.Account, error) {
	email = normalizeEmail(email)

	account, err := s.repo.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if account == nil {
		return "", nil, ErrAccountNotFound
	}
	if !account.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}
	if !account.Active {
		return "", nil, ErrAccountDeactivated
	}
	now := s.now()
	// a locked account rejects before the hash comparison and never
	// increments the counter
	if account.IsLocked(now) {
		return "", nil, ErrAccountLocked
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		if err := s.repo.RecordFailedLogin(account.ID, now, maxFailedLogins, lockDuration); err != nil {
			log.Printf("[auth][login] failed to record attempt for %s: %v", account.ID, err)
		}
		return "", nil, ErrInvalidCredentials
	}

	return s.openSession(account, now)
}

// openSession rotates the fingerprint (invalidating prior tokens),
// clears lockout and reset state, and signs a fresh bearer token.
func (s *authService) openSession(account *models.Account, now time.Time) (string, *models.Account, error) {
	fingerprint, err := utils.NewOpaqueToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("generate fingerprint: %w", err)
	}
	if err := s.repo.RecordSuccessfulLogin(account.ID, fingerprint, now); err != nil {
		return "", nil, err
	}

	signed, err := s.issuer.Sign(account.ID, fingerprint)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	account.SessionFingerprint = &fingerprint
	account.FailedAttempts = 0
	account.LockedUntil = nil
	account.LastLogin = &now

	log.Printf("[auth][login] success account=%s role=%s", account.ID, account.Role)
	return signed, account, nil
}

func (s *authService) ForgotPassword(email string) (*models.Account, error) {
	email = normalizeEmail(email)

	account, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	plain, err := utils.NewOpaqueToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	expiry := s.now().Add(resetTokenTTL)

	// only the hash is persisted; the plaintext goes out by mail once
	if err := s.repo.IssueResetToken(account.ID, utils.HashToken(plain), expiry); err != nil {
		return nil, err
	}

	if err := s.emails.SendPasswordResetToken(account.Email, account.FirstName, plain); err != nil {
		// compensating update: never leave a persisted-but-undeliverable token
		if clearErr := s.repo.ClearResetToken(account.ID); clearErr != nil {
			log.Printf("[auth][forgot-password] compensation failed for %s: %v", account.ID, clearErr)
		}
		log.Printf("[auth][forgot-password] failed to mail reset token to %s: %v", account.Email, err)
		return nil, ErrMailDelivery
	}

	log.Printf("[auth][forgot-password] reset token sent account=%s", account.ID)
	return account, nil
}

func (s *authService) ResetPassword(plainToken, newPassword string) (string, *models.Account, error) {
	now := s.now()
	tokenHash := utils.HashToken(plainToken)

	account, err := s.repo.GetByResetTokenHash(tokenHash, now)
	if err != nil {
		return "", nil, err
	}
	if account == nil {
		return "", nil, ErrResetTokenInvalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", nil, err
	}

	fingerprint, err := utils.NewOpaqueToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("generate fingerprint: %w", err)
	}

	// backdate by a second so the token signed below has iat strictly
	// after password_changed_at; the consume is keyed to the validated
	// hash so a reset token issued meanwhile stays untouched
	changedAt := now.Add(-time.Second)
	ok, err := s.repo.ResetPassword(account.ID, hash, fingerprint, tokenHash, changedAt, now)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrResetTokenInvalid
	}

	signed, err := s.issuer.Sign(account.ID, fingerprint)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	account.SessionFingerprint = &fingerprint
	account.PasswordChangedAt = &changedAt

	log.Printf("[auth][reset-password] success account=%s", account.ID)
	return signed, account, nil
}

func (s *authService) UpdatePassword(account *models.Account, oldPassword, newPassword string) (string, *models.Account, error) {
	if !s.hasher.Verify(oldPassword, account.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	if oldPassword == newPassword {
		return "", nil, ErrSamePassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", nil, err
	}

	fingerprint, err := utils.NewOpaqueToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("generate fingerprint: %w", err)
	}

	changedAt := s.now().Add(-time.Second)
	if err := s.repo.ChangePassword(account.ID, hash, fingerprint, changedAt); err != nil {
		return "", nil, err
	}

	signed, err := s.issuer.Sign(account.ID, fingerprint)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	account.SessionFingerprint = &fingerprint
	account.PasswordChangedAt = &changedAt

	log.Printf("[auth][update-password] success account=%s", account.ID)
	return signed, account, nil
}

// VerifyToken runs the full gate check: signature and expiry first
// (stateless), then the record checks. All of them are mandatory.
func (s *authService) VerifyToken(tokenString string) (*models.Account, *token.Claims, error) {
	claims, err := s.issuer.Parse(tokenString)
	if err != nil {
		return nil, nil, token.ErrInvalidToken
	}

	account, err := s.repo.GetByID(claims.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, token.ErrInvalidToken
	}
	if account.SessionFingerprint == nil || *account.SessionFingerprint != claims.Fingerprint {
		return nil, nil, ErrSessionSuperseded
	}
	if !account.Active {
		return nil, nil, ErrAccountDeactivated
	}
	if !account.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}
	if account.IsLocked(s.now()) {
		return nil, nil, ErrAccountLocked
	}
	if claims.IssuedAt == nil || account.ChangedPasswordAfter(claims.IssuedAt.Unix()) {
		return nil, nil, ErrPasswordChanged
	}

	return account, claims, nil
}
