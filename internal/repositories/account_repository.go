package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"iconbuzzer/internal/models"
)

var ErrDuplicateEmail = errors.New("email already registered")

// PageQuery is the cursorless pagination contract shared by the admin
// list endpoints.
type PageQuery struct {
	Page   int
	Limit  int
	Search string
	Sort   string
	Order  int // 1 asc, -1 desc
}

// AccountRepository owns every mutation of the credential record. The
// security-state methods are explicit update intents: each one is a
// single conditional UPDATE so two racing requests can never
// double-consume a code or lose a counter update.
type AccountRepository interface {
	Create(a *models.Account) error
	GetByID(id string) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	GetByResetTokenHash(hash string, now time.Time) (*models.Account, error)
	EmailExists(email, excludeID string) (bool, error)
	List(role string) ([]*models.Account, error)
	PageList(q PageQuery) ([]*models.Account, int, error)

	UpdateProfile(id string, upd models.ProfileUpdate, unverify bool) (*models.Account, error)
	SetActive(id string, active bool) (*models.Account, error)
	ExistingIDs(ids []string) ([]string, error)
	Delete(ids []string) (int64, error)

	// update intents on the security state
	IssueRegistrationOTP(id, otp string, expiry time.Time) error
	IssueLoginOTP(id, otp string, expiry time.Time) error
	ConsumeRegistrationOTP(id, otp string, now time.Time) (bool, error)
	ConsumeLoginOTP(id, otp string, now time.Time) (bool, error)
	RecordFailedLogin(id string, now time.Time, threshold int, lockFor time.Duration) error
	RecordSuccessfulLogin(id, fingerprint string, now time.Time) error
	IssueResetToken(id, tokenHash string, expiry time.Time) error
	ClearResetToken(id string) error
	ResetPassword(id, passwordHash, fingerprint, tokenHash string, changedAt, now time.Time) (bool, error)
	ChangePassword(id, passwordHash, fingerprint string, changedAt time.Time) error
}

type accountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{DB: db}
}

const accountColumns = `
	id, email, first_name, last_name, password_hash, email_verified, role, active,
	otp, otp_expiry, login_otp, login_otp_expiry,
	reset_token_hash, reset_token_expiry,
	session_fingerprint, password_changed_at,
	failed_attempts, locked_until, last_login,
	avatar, phone, city, state, country, zip_code,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var (
		lastName  sql.NullString
		otp       sql.NullString
		otpExp    sql.NullTime
		loginOTP  sql.NullString
		loginExp  sql.NullTime
		resetHash sql.NullString
		resetExp  sql.NullTime
		fpr       sql.NullString
		pwChanged sql.NullTime
		locked    sql.NullTime
		lastLogin sql.NullTime
		avatar    sql.NullString
		phone     sql.NullString
		city      sql.NullString
		state     sql.NullString
		country   sql.NullString
		zip       sql.NullString
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.FirstName, &lastName, &a.PasswordHash, &a.EmailVerified, &a.Role, &a.Active,
		&otp, &otpExp, &loginOTP, &loginExp,
		&resetHash, &resetExp,
		&fpr, &pwChanged,
		&a.FailedAttempts, &locked, &lastLogin,
		&avatar, &phone, &city, &state, &country, &zip,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastName.Valid {
		a.LastName = lastName.String
	}
	if otp.Valid {
		a.OTP = &otp.String
	}
	if otpExp.Valid {
		a.OTPExpiry = &otpExp.Time
	}
	if loginOTP.Valid {
		a.LoginOTP = &loginOTP.String
	}
	if loginExp.Valid {
		a.LoginOTPExpiry = &loginExp.Time
	}
	if resetHash.Valid {
		a.ResetTokenHash = &resetHash.String
	}
	if resetExp.Valid {
		a.ResetTokenExpiry = &resetExp.Time
	}
	if fpr.Valid {
		a.SessionFingerprint = &fpr.String
	}
	if pwChanged.Valid {
		a.PasswordChangedAt = &pwChanged.Time
	}
	if locked.Valid {
		a.LockedUntil = &locked.Time
	}
	if lastLogin.Valid {
		a.LastLogin = &lastLogin.Time
	}
	if avatar.Valid {
		a.Profile.Avatar = avatar.String
	}
	if phone.Valid {
		a.Profile.Phone = phone.String
	}
	if city.Valid {
		a.Profile.City = city.String
	}
	if state.Valid {
		a.Profile.State = state.String
	}
	if country.Valid {
		a.Profile.Country = country.String
	}
	if zip.Valid {
		a.Profile.ZipCode = zip.String
	}
	return a, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *accountRepository) Create(a *models.Account) error {
	const q = `
		INSERT INTO accounts (
			id, email, first_name, last_name, password_hash, email_verified, role, active,
			otp, otp_expiry, avatar, failed_attempts
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,0)
		RETURNING created_at, updated_at
	`
	var otp, avatar any
	var otpExp any
	if a.OTP != nil {
		otp = *a.OTP
	}
	if a.OTPExpiry != nil {
		otpExp = *a.OTPExpiry
	}
	avatar = nullIfEmpty(a.Profile.Avatar)

	err := r.DB.QueryRow(q,
		a.ID, a.Email, a.FirstName, nullIfEmpty(a.LastName), a.PasswordHash,
		a.EmailVerified, a.Role, a.Active,
		otp, otpExp, avatar,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(id string) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.DB.QueryRow(q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

func (r *accountRepository) GetByEmail(email string) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	a, err := scanAccount(r.DB.QueryRow(q, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

func (r *accountRepository) GetByResetTokenHash(hash string, now time.Time) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts
		WHERE reset_token_hash = $1 AND reset_token_expiry > $2`
	a, err := scanAccount(r.DB.QueryRow(q, hash, now))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by reset token: %w", err)
	}
	return a, nil
}

func (r *accountRepository) EmailExists(email, excludeID string) (bool, error) {
	var exists bool
	var err error
	if excludeID == "" {
		err = r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM accounts WHERE email=$1)`, email).Scan(&exists)
	} else {
		err = r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM accounts WHERE email=$1 AND id<>$2)`, email, excludeID).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return exists, nil
}

func (r *accountRepository) List(role string) ([]*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE role = $1 ORDER BY created_at DESC`
	rows, err := r.DB.Query(q, role)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var res []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// sortable columns for PageList; anything else falls back to created_at
var accountSortColumns = map[string]string{
	"created_at": "created_at",
	"createdAt":  "created_at",
	"email":      "email",
	"first_name": "first_name",
	"last_name":  "last_name",
	"city":       "city",
	"state":      "state",
	"country":    "country",
	"zip_code":   "zip_code",
	"last_login": "last_login",
}

func (r *accountRepository) PageList(q PageQuery) ([]*models.Account, int, error) {
	where := `WHERE role = 'user'`
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+s+"%")
		where += ` AND (first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1
			OR city ILIKE $1 OR state ILIKE $1 OR country ILIKE $1 OR zip_code ILIKE $1)`
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM accounts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	sortCol, ok := accountSortColumns[q.Sort]
	if !ok {
		sortCol = "created_at"
	}
	dir := "DESC"
	if q.Order > 0 {
		dir = "ASC"
	}

	offset := (q.Page - 1) * q.Limit
	args = append(args, q.Limit, offset)
	sel := fmt.Sprintf(`SELECT %s FROM accounts %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		accountColumns, where, sortCol, dir, len(args)-1, len(args))

	rows, err := r.DB.Query(sel, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("page accounts: %w", err)
	}
	defer rows.Close()

	var res []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		res = append(res, a)
	}
	return res, total, rows.Err()
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func (r *accountRepository) UpdateProfile(id string, upd models.ProfileUpdate, unverify bool) (*models.Account, error) {
	// COALESCE keeps untouched fields; an email change also drops the
	// verified flag in the same statement
	q := `
		UPDATE accounts SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			email      = COALESCE($4, email),
			avatar     = COALESCE($5, avatar),
			phone      = COALESCE($6, phone),
			city       = COALESCE($7, city),
			state      = COALESCE($8, state),
			country    = COALESCE($9, country),
			zip_code   = COALESCE($10, zip_code),
			email_verified = CASE WHEN $11 THEN FALSE ELSE email_verified END,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + accountColumns
	a, err := scanAccount(r.DB.QueryRow(q, id,
		strOrNil(upd.FirstName), strOrNil(upd.LastName), strOrNil(upd.Email),
		strOrNil(upd.Avatar), strOrNil(upd.Phone), strOrNil(upd.City),
		strOrNil(upd.State), strOrNil(upd.Country), strOrNil(upd.ZipCode),
		unverify,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return a, nil
}

func (r *accountRepository) SetActive(id string, active bool) (*models.Account, error) {
	q := `UPDATE accounts SET active=$2, updated_at=now() WHERE id=$1 RETURNING ` + accountColumns
	a, err := scanAccount(r.DB.QueryRow(q, id, active))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	return a, nil
}

func (r *accountRepository) ExistingIDs(ids []string) ([]string, error) {
	rows, err := r.DB.Query(`SELECT id FROM accounts WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("existing ids: %w", err)
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

func (r *accountRepository) Delete(ids []string) (int64, error) {
	res, err := r.DB.Exec(`DELETE FROM accounts WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete accounts: %w", err)
	}
	return res.RowsAffected()
}

/* ----- security-state update intents ----- */

func (r *accountRepository) IssueRegistrationOTP(id, otp string, expiry time.Time) error {
	const q = `
		UPDATE accounts
		SET otp=$2, otp_expiry=$3, updated_at=now()
		WHERE id=$1
	`
	_, err := r.DB.Exec(q, id, otp, expiry)
	if err != nil {
		return fmt.Errorf("issue registration otp: %w", err)
	}
	return nil
}

func (r *accountRepository) IssueLoginOTP(id, otp string, expiry time.Time) error {
	const q = `
		UPDATE accounts
		SET login_otp=$2, login_otp_expiry=$3, updated_at=now()
		WHERE id=$1
	`
	_, err := r.DB.Exec(q, id, otp, expiry)
	if err != nil {
		return fmt.Errorf("issue login otp: %w", err)
	}
	return nil
}

// ConsumeRegistrationOTP marks the email verified and clears the code in
// one conditional statement. Zero rows affected means the code was
// already consumed by a racing request (or no longer matches).
func (r *accountRepository) ConsumeRegistrationOTP(id, otp string, now time.Time) (bool, error) {
	const q = `
		UPDATE accounts
		SET email_verified=TRUE, otp=NULL, otp_expiry=NULL, updated_at=now()
		WHERE id=$1 AND otp=$2 AND otp_expiry > $3
	`
	res, err := r.DB.Exec(q, id, otp, now)
	if err != nil {
		return false, fmt.Errorf("consume registration otp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *accountRepository) ConsumeLoginOTP(id, otp string, now time.Time) (bool, error) {
	const q = `
		UPDATE accounts
		SET login_otp=NULL, login_otp_expiry=NULL, updated_at=now()
		WHERE id=$1 AND login_otp=$2 AND login_otp_expiry > $3
	`
	res, err := r.DB.Exec(q, id, otp, now)
	if err != nil {
		return false, fmt.Errorf("consume login otp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecordFailedLogin implements the lockout transition in one statement:
// a stale lock resets the counter to 1 and clears the lock, otherwise
// the counter increments; reaching the threshold opens a new lock
// window.
func (r *accountRepository) RecordFailedLogin(id string, now time.Time, threshold int, lockFor time.Duration) error {
	const q = `
		UPDATE accounts SET
			failed_attempts = CASE
				WHEN locked_until IS NOT NULL AND locked_until < $2 THEN 1
				ELSE failed_attempts + 1
			END,
			locked_until = CASE
				WHEN locked_until IS NOT NULL AND locked_until < $2 THEN NULL
				WHEN failed_attempts + 1 >= $3 THEN $4
				ELSE locked_until
			END,
			updated_at = now()
		WHERE id = $1
	`
	_, err := r.DB.Exec(q, id, now, threshold, now.Add(lockFor))
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	return nil
}

// RecordSuccessfulLogin clears the lockout state, rotates the session
// fingerprint (invalidating all previously issued tokens) and drops any
// outstanding reset token, all in one write.
func (r *accountRepository) RecordSuccessfulLogin(id, fingerprint string, now time.Time) error {
	const q = `
		UPDATE accounts SET
			failed_attempts = 0,
			locked_until = NULL,
			session_fingerprint = $2,
			reset_token_hash = NULL,
			reset_token_expiry = NULL,
			last_login = $3,
			updated_at = now()
		WHERE id = $1
	`
	_, err := r.DB.Exec(q, id, fingerprint, now)
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}
	return nil
}

func (r *accountRepository) IssueResetToken(id, tokenHash string, expiry time.Time) error {
	const q = `
		UPDATE accounts
		SET reset_token_hash=$2, reset_token_expiry=$3, updated_at=now()
		WHERE id=$1
	`
	_, err := r.DB.Exec(q, id, tokenHash, expiry)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	return nil
}

// ClearResetToken is the compensating update when mail delivery fails.
func (r *accountRepository) ClearResetToken(id string) error {
	const q = `
		UPDATE accounts
		SET reset_token_hash=NULL, reset_token_expiry=NULL, updated_at=now()
		WHERE id=$1
	`
	_, err := r.DB.Exec(q, id)
	if err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

// ResetPassword consumes the outstanding reset token: the new hash,
// fingerprint rotation, password_changed_at and token cleanup land in a
// single conditional write. The WHERE clause re-checks that the stored
// hash is still the one this request validated and unexpired, so a
// racing forgot-password that replaced the token makes this a no-op.
// Zero rows means a racing request won.
func (r *accountRepository) ResetPassword(id, passwordHash, fingerprint, tokenHash string, changedAt, now time.Time) (bool, error) {
	const q = `
		UPDATE accounts SET
			password_hash = $2,
			password_changed_at = $3,
			session_fingerprint = $4,
			reset_token_hash = NULL,
			reset_token_expiry = NULL,
			updated_at = now()
		WHERE id = $1 AND reset_token_hash = $5 AND reset_token_expiry > $6
	`
	res, err := r.DB.Exec(q, id, passwordHash, changedAt, fingerprint, tokenHash, now)
	if err != nil {
		return false, fmt.Errorf("reset password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *accountRepository) ChangePassword(id, passwordHash, fingerprint string, changedAt time.Time) error {
	const q = `
		UPDATE accounts SET
			password_hash = $2,
			password_changed_at = $3,
			session_fingerprint = $4,
			updated_at = now()
		WHERE id = $1
	`
	_, err := r.DB.Exec(q, id, passwordHash, changedAt, fingerprint)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}
