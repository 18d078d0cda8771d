package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
	"iconbuzzer/internal/token"
	"iconbuzzer/internal/utils"
)

// plainHasher keeps the unit tests fast; the real bcrypt hasher has its
// own round-trip test.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }
func (plainHasher) Verify(plain, digest string) bool  { return digest == "h:"+plain }

type authFixture struct {
	repo  *fakeAccountRepo
	mail  *fakeEmailService
	auth  *authService
	clock time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		repo:  newFakeAccountRepo(),
		mail:  &fakeEmailService{},
		clock: time.Now(),
	}
	issuer := token.NewIssuer("test-secret", time.Hour).WithTimeFunc(func() time.Time { return f.clock })
	f.auth = NewAuthService(f.repo, f.mail, plainHasher{}, issuer).(*authService)
	f.auth.now = func() time.Time { return f.clock }
	return f
}

func (f *authFixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *authFixture) register(t *testing.T, email, password string) *models.Account {
	t.Helper()
	account, err := f.auth.Register(models.RegisterRequest{
		FirstName: "Alice",
		Email:     email,
		Password:  password,
	})
	require.NoError(t, err)
	return account
}

func (f *authFixture) registerVerified(t *testing.T, email, password string) *models.Account {
	t.Helper()
	f.register(t, email, password)
	verified, err := f.auth.VerifyOTP(OTPFlowRegister, email, f.mail.lastOTP())
	require.NoError(t, err)
	require.True(t, verified.EmailVerified)
	return verified
}

func TestRegisterSendsOTPAndStaysUnverified(t *testing.T) {
	f := newAuthFixture(t)

	account := f.register(t, "alice@example.com", "correct horse")

	assert.False(t, account.EmailVerified)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.NotEmpty(t, f.mail.lastOTP())
	assert.Len(t, f.mail.lastOTP(), 6)

	// login is refused until the email is verified
	_, _, err := f.auth.Login("alice@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice@example.com", "correct horse")

	_, err := f.auth.Register(models.RegisterRequest{
		FirstName: "Mallory",
		Email:     "Alice@Example.COM",
		Password:  "other password",
	})
	assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)
}

func TestVerifyOTPIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice@example.com", "correct horse")
	otp := f.mail.lastOTP()

	_, err := f.auth.VerifyOTP(OTPFlowRegister, "alice@example.com", "000000")
	assert.ErrorIs(t, err, ErrOTPInvalid)

	account, err := f.auth.VerifyOTP(OTPFlowRegister, "alice@example.com", otp)
	require.NoError(t, err)
	assert.True(t, account.EmailVerified)

	// the consumed code never works twice
	_, err = f.auth.VerifyOTP(OTPFlowRegister, "alice@example.com", otp)
	assert.ErrorIs(t, err, ErrOTPNotRequested)
}

func TestVerifyOTPExpires(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice@example.com", "correct horse")
	otp := f.mail.lastOTP()

	f.advance(11 * time.Minute)
	_, err := f.auth.VerifyOTP(OTPFlowRegister, "alice@example.com", otp)
	assert.ErrorIs(t, err, ErrOTPExpired)

	// a fresh code replaces the expired one
	_, err = f.auth.SendOTP(OTPFlowRegister, "alice@example.com")
	require.NoError(t, err)
	account, err := f.auth.VerifyOTP(OTPFlowRegister, "alice@example.com", f.mail.lastOTP())
	require.NoError(t, err)
	assert.True(t, account.EmailVerified)
}

func TestSendOTPValidation(t *testing.T) {
	f := newAuthFixture(t)
	account := f.registerVerified(t, "alice@example.com", "correct horse")
	mailed := len(f.mail.otps)

	_, err := f.auth.SendOTP("password", "alice@example.com")
	assert.ErrorIs(t, err, ErrBadOTPFlow)

	_, err = f.auth.SendOTP(OTPFlowRegister, "nobody@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// register flow on a verified address is a no-op success: no code
	// stored, no mail sent
	got, err := f.auth.SendOTP(OTPFlowRegister, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Len(t, f.mail.otps, mailed)

	stored, _ := f.repo.GetByID(account.ID)
	assert.Nil(t, stored.OTP)
	assert.Nil(t, stored.OTPExpiry)
}

func TestLoginOTPFlow(t *testing.T) {
	f := newAuthFixture(t)
	f.registerVerified(t, "alice@example.com", "correct horse")

	_, err := f.auth.VerifyOTP(OTPFlowLogin, "alice@example.com", "123456")
	assert.ErrorIs(t, err, ErrOTPNotRequested)

	_, err = f.auth.SendOTP(OTPFlowLogin, "alice@example.com")
	require.NoError(t, err)

	account, err := f.auth.VerifyOTP(OTPFlowLogin, "alice@example.com", f.mail.lastOTP())
	require.NoError(t, err)
	// the login code confirms possession of the mailbox, it does not
	// touch the verified flag
	assert.True(t, account.EmailVerified)
}

func TestLoginIssuesWorkingToken(t *testing.T) {
	f := newAuthFixture(t)
	f.registerVerified(t, "alice@example.com", "correct horse")

	signed, account, err := f.auth.Login("alice@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.NotNil(t, account.SessionFingerprint)

	got, claims, err := f.auth.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, *account.SessionFingerprint, claims.Fingerprint)
}

func TestSingleActiveSession(t *testing.T) {
	f := newAuthFixture(t)
	f.registerVerified(t, "alice@example.com", "correct horse")

	first, _, err := f.auth.Login("alice@example.com", "correct horse")
	require.NoError(t, err)
	second, _, err := f.auth.Login("alice@example.com", "correct horse")
	require.NoError(t, err)

	// the newer login supersedes the older token
	_, _, err = f.auth.VerifyToken(first)
	assert.ErrorIs(t, err, ErrSessionSuperseded)
	_, _, err = f.auth.VerifyToken(second)
	assert.NoError(t, err)
}

func TestLoginLockout(t *testing.T) {
	f := newAuthFixture(t)
	account := f.registerVerified(t, "bob@example.com", "correct horse")

	for i := 0; i < maxFailedLogins; i++ {
		_, _, err := f.auth.Login("bob@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored, _ := f.repo.GetByID(account.ID)
	require.True(t, stored.IsLocked(f.clock))
	assert.Equal(t, maxFailedLogins, stored.FailedAttempts)

	// while locked even the correct password is refused, before the
	// hash comparison, and the counter stays put
	_, _, err := f.auth.Login("bob@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrAccountLocked)
	stored, _ = f.repo.GetByID(account.ID)
	assert.Equal(t, maxFailedLogins, stored.FailedAttempts)

	// just before the hour the lock still holds
	f.advance(lockDuration - time.Minute)
	_, _, err = f.auth.Login("bob@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrAccountLocked)

	// once elapsed, a failure restarts the counter at one
	f.advance(2 * time.Minute)
	_, _, err = f.auth.Login("bob@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	stored, _ = f.repo.GetByID(account.ID)
	assert.Equal(t, 1, stored.FailedAttempts)
	assert.False(t, stored.IsLocked(f.clock))

	// a success clears everything
	_, _, err = f.auth.Login("bob@example.com", "correct horse")
	require.NoError(t, err)
	stored, _ = f.repo.GetByID(account.ID)
	assert.Equal(t, 0, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestLoginStateOrder(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.auth.Login("ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	account := f.registerVerified(t, "alice@example.com", "correct horse")
	_, err = f.repo.SetActive(account.ID, false)
	require.NoError(t, err)

	_, _, err = f.auth.Login("alice@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	account := f.registerVerified(t, "alice@example.com", "old password")
	oldToken, _, err := f.auth.Login("alice@example.com", "old password")
	require.NoError(t, err)

	_, err = f.auth.ForgotPassword("nobody@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = f.auth.ForgotPassword("alice@example.com")
	require.NoError(t, err)
	plain := f.mail.lastResetToken()
	require.NotEmpty(t, plain)

	// only the hash is stored
	stored, _ := f.repo.GetByID(account.ID)
	require.NotNil(t, stored.ResetTokenHash)
	assert.NotEqual(t, plain, *stored.ResetTokenHash)

	_, _, err = f.auth.ResetPassword("bogus-token", "new password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	signed, _, err := f.auth.ResetPassword(plain, "new password")
	require.NoError(t, err)

	// the reset token is single use
	_, _, err = f.auth.ResetPassword(plain, "another password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	// old credentials and old session are both dead
	_, _, err = f.auth.Login("alice@example.com", "old password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.auth.VerifyToken(oldToken)
	assert.Error(t, err)

	// the token minted by the reset works right away
	_, _, err = f.auth.VerifyToken(signed)
	assert.NoError(t, err)
	_, _, err = f.auth.Login("alice@example.com", "new password")
	assert.NoError(t, err)
}

func TestResetTokenExpires(t *testing.T) {
	f := newAuthFixture(t)
	f.registerVerified(t, "alice@example.com", "old password")

	_, err := f.auth.ForgotPassword("alice@example.com")
	require.NoError(t, err)
	plain := f.mail.lastResetToken()

	f.advance(11 * time.Minute)
	_, _, err = f.auth.ResetPassword(plain, "new password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetPasswordConsumeRequiresCurrentToken(t *testing.T) {
	f := newAuthFixture(t)
	account := f.registerVerified(t, "alice@example.com", "old password")

	_, err := f.auth.ForgotPassword("alice@example.com")
	require.NoError(t, err)
	supersededToken := f.mail.lastResetToken()

	_, err = f.auth.ForgotPassword("alice@example.com")
	require.NoError(t, err)
	currentToken := f.mail.lastResetToken()
	require.NotEqual(t, supersededToken, currentToken)

	// a consume keyed to the superseded token must be a no-op and leave
	// the current token usable
	ok, err := f.repo.ResetPassword(account.ID, "h:sneaky password", "stale-fpr",
		utils.HashToken(supersededToken), f.clock.Add(-time.Second), f.clock)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, _ := f.repo.GetByID(account.ID)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, utils.HashToken(currentToken), *stored.ResetTokenHash)

	_, _, err = f.auth.ResetPassword(currentToken, "new password")
	require.NoError(t, err)

	_, _, err = f.auth.Login("alice@example.com", "new password")
	require.NoError(t, err)
}

func TestForgotPasswordMailFailureRollsBack(t *testing.T) {
	f := newAuthFixture(t)
	account := f.registerVerified(t, "alice@example.com", "old password")

	f.mail.fail = true
	_, err := f.auth.ForgotPassword("alice@example.com")
	assert.ErrorIs(t, err, ErrMailDelivery)

	// the undeliverable token must not linger on the record
	stored, _ := f.repo.GetByID(account.ID)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiry)
}

func TestLoginClearsOutstandingResetToken(t *testing.T) {
	f := newAuthFixture(t)
	account := f.registerVerified(t, "alice@example.com", "correct horse")

	_, err := f.auth.ForgotPassword("alice@example.com")
	require.NoError(t, err)
	plain := f.mail.lastResetToken()

	_, _, err = f.auth.Login("alice@example.com", "correct horse")
	require.NoError(t, err)

	stored, _ := f.repo.GetByID(account.ID)
	assert.Nil(t, stored.ResetTokenHash)
	_, _, err = f.auth.ResetPassword(plain, "new password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestUpdatePassword(t *testing.T) {
	f := newAuthFixture(t)
	f.registerVerified(t, "alice@example.com", "old password")
	oldToken, account, err := f.auth.Login("alice@example.com", "old password")
	require.NoError(t, err)

	_, _, err = f.auth.UpdatePassword(account, "wrong", "new password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.auth.UpdatePassword(account, "old password", "old password")
	assert.ErrorIs(t, err, ErrSamePassword)

	signed, _, err := f.auth.UpdatePassword(account, "old password", "new password")
	require.NoError(t, err)

	// the fresh token is usable immediately, the pre-change one is not
	_, _, err = f.auth.VerifyToken(signed)
	assert.NoError(t, err)
	_, _, err = f.auth.VerifyToken(oldToken)
	assert.Error(t, err)

	_, _, err = f.auth.Login("alice@example.com", "new password")
	assert.NoError(t, err)
}

func TestVerifyTokenRecordChecks(t *testing.T) {
	f := newAuthFixture(t)
	account := f.registerVerified(t, "alice@example.com", "correct horse")
	signed, _, err := f.auth.Login("alice@example.com", "correct horse")
	require.NoError(t, err)

	_, _, err = f.auth.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = f.repo.SetActive(account.ID, false)
	require.NoError(t, err)
	_, _, err = f.auth.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrAccountDeactivated)

	_, err = f.repo.SetActive(account.ID, true)
	require.NoError(t, err)
	_, _, err = f.auth.VerifyToken(signed)
	assert.NoError(t, err)

	// a lock opened after issuing also blocks the token
	for i := 0; i < maxFailedLogins; i++ {
		_, _, _ = f.auth.Login("alice@example.com", "wrong")
	}
	_, _, err = f.auth.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrAccountLocked)
}
