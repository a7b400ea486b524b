package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vaultpass/securevault-go/internal/model"
)

var ErrRecordNotFound = errors.New("vault record not found")

const recordColumns = `id, user_id, ciphertext, iv, created_at, updated_at`

// VaultRepository handles vault record persistence. Every statement is
// scoped by owner, so a record id alone never reaches another account's row.
type VaultRepository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// NewVaultRepository creates a new VaultRepository.
func NewVaultRepository(db *sql.DB) *VaultRepository {
	return &VaultRepository{db: db, now: time.Now, newID: uuid.NewString}
}

// Create stores a new record under a server-assigned UUID.
func (r *VaultRepository) Create(ctx context.Context, userID int64, ciphertext, iv string) (*model.VaultRecord, error) {
	query := `INSERT INTO vault_records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	now := r.now().UTC()
	rec := &model.VaultRecord{
		ID:         r.newID(),
		UserID:     userID,
		Ciphertext: ciphertext,
		IV:         iv,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Ciphertext, rec.IV, rec.CreatedAt, rec.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert vault record: %w", err)
	}

	return rec, nil
}

// Get retrieves one record owned by userID.
func (r *VaultRepository) Get(ctx context.Context, id string, userID int64) (*model.VaultRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM vault_records WHERE id = ? AND user_id = ?`

	var rec model.VaultRecord
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&rec.ID, &rec.UserID, &rec.Ciphertext, &rec.IV, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("select vault record: %w", err)
	}

	return &rec, nil
}

// ListByUser returns all records of a user, most recently updated first.
func (r *VaultRepository) ListByUser(ctx context.Context, userID int64) ([]model.VaultRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM vault_records WHERE user_id = ? ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list vault records: %w", err)
	}
	defer rows.Close()

	var records []model.VaultRecord
	for rows.Next() {
		var rec model.VaultRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Ciphertext, &rec.IV, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan vault record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Update replaces the ciphertext and IV of a record owned by userID.
func (r *VaultRepository) Update(ctx context.Context, id string, userID int64, ciphertext, iv string) (*model.VaultRecord, error) {
	query := `UPDATE vault_records SET ciphertext = ?, iv = ?, updated_at = ? WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, ciphertext, iv, r.now().UTC(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("update vault record: %w", err)
	}
	if err := expectOneRow(result, ErrRecordNotFound); err != nil {
		return nil, err
	}

	return r.Get(ctx, id, userID)
}

// Delete removes a record owned by userID.
func (r *VaultRepository) Delete(ctx context.Context, id string, userID int64) error {
	query := `DELETE FROM vault_records WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete vault record: %w", err)
	}
	return expectOneRow(result, ErrRecordNotFound)
}
