package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/vaultpass/securevault-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrStaleCredential means a guarded update found the row changed
	// since it was read: a newer setup replaced the pending secret, or the
	// password hash no longer matches.
	ErrStaleCredential = errors.New("credential changed concurrently")
)

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

const userColumns = `id, email, auth_hash, otp_secret, otp_pending_secret, otp_enabled, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// Create inserts a new user and sets the generated ID and timestamps on it.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (email, auth_hash, otp_secret, otp_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := r.now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		user.Email, user.AuthHash, nullString(user.OTPSecret), user.OTPEnabled, now, now,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// SetPendingOTPSecret stores a secret awaiting confirmation. The active
// secret and the enabled flag are left alone.
func (r *UserRepository) SetPendingOTPSecret(ctx context.Context, id int64, secret string) error {
	query := `UPDATE users SET otp_pending_secret = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, secret, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set pending otp secret: %w", err)
	}
	return expectOneRow(result, ErrUserNotFound)
}

// ConfirmOTPSecret promotes the pending secret to active and enables
// two-factor, provided the pending secret is still the one that was verified.
func (r *UserRepository) ConfirmOTPSecret(ctx context.Context, id int64, pending string) error {
	query := `UPDATE users
		SET otp_secret = otp_pending_secret, otp_pending_secret = NULL, otp_enabled = TRUE, updated_at = ?
		WHERE id = ? AND otp_pending_secret = ?`

	result, err := r.db.ExecContext(ctx, query, r.now().UTC(), id, pending)
	if err != nil {
		return fmt.Errorf("confirm otp secret: %w", err)
	}
	return expectOneRow(result, ErrStaleCredential)
}

// DisableOTP clears both secrets and the enabled flag, provided the password
// hash is still the one the caller verified against.
func (r *UserRepository) DisableOTP(ctx context.Context, id int64, authHash string) error {
	query := `UPDATE users
		SET otp_secret = NULL, otp_pending_secret = NULL, otp_enabled = FALSE, updated_at = ?
		WHERE id = ? AND auth_hash = ?`

	result, err := r.db.ExecContext(ctx, query, r.now().UTC(), id, authHash)
	if err != nil {
		return fmt.Errorf("disable otp: %w", err)
	}
	return expectOneRow(result, ErrStaleCredential)
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
	var (
		user            model.User
		secret, pending sql.NullString
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.AuthHash, &secret, &pending,
		&user.OTPEnabled, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	user.OTPSecret = secret.String
	user.OTPPendingSecret = pending.String
	return &user, nil
}

func expectOneRow(result sql.Result, none error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return none
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
