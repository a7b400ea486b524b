package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vaultpass/securevault-go/internal/model"
	"github.com/vaultpass/securevault-go/internal/repository"
)

// MaxIVLength bounds the stored iv column. The client sends 32 hex chars.
const MaxIVLength = 64

var (
	ErrCiphertextRequired = errors.New("ciphertext is required")
	ErrIVRequired         = errors.New("iv is required")
	ErrIVTooLong          = errors.New("iv is too long")
	ErrRecordNotFound     = errors.New("vault record not found")
)

// VaultService stores and returns opaque records. It never sees plaintext.
type VaultService struct {
	records RecordStore
}

// NewVaultService creates a new VaultService.
func NewVaultService(records RecordStore) *VaultService {
	return &VaultService{records: records}
}

// List returns the caller's records, most recently updated first.
func (s *VaultService) List(ctx context.Context, userID int64) ([]model.VaultRecordResponse, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.VaultRecordResponse, len(records))
	for i := range records {
		out[i] = records[i].ToResponse()
	}
	return out, nil
}

func (s *VaultService) Create(ctx context.Context, userID int64, req model.VaultRecordRequest) (model.VaultRecordResponse, error) {
	if err := validateRecord(req); err != nil {
		return model.VaultRecordResponse{}, err
	}

	rec, err := s.records.Create(ctx, userID, req.Ciphertext, strings.TrimSpace(req.IV))
	if err != nil {
		return model.VaultRecordResponse{}, err
	}
	return rec.ToResponse(), nil
}

// Update replaces the ciphertext and iv of a record the caller owns.
func (s *VaultService) Update(ctx context.Context, userID int64, id string, req model.VaultRecordRequest) (model.VaultRecordResponse, error) {
	if !validRecordID(id) {
		return model.VaultRecordResponse{}, ErrRecordNotFound
	}
	if err := validateRecord(req); err != nil {
		return model.VaultRecordResponse{}, err
	}

	rec, err := s.records.Update(ctx, id, userID, req.Ciphertext, strings.TrimSpace(req.IV))
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return model.VaultRecordResponse{}, ErrRecordNotFound
		}
		return model.VaultRecordResponse{}, err
	}
	return rec.ToResponse(), nil
}

func (s *VaultService) Delete(ctx context.Context, userID int64, id string) error {
	if !validRecordID(id) {
		return ErrRecordNotFound
	}

	err := s.records.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

func validateRecord(req model.VaultRecordRequest) error {
	if req.Ciphertext == "" {
		return ErrCiphertextRequired
	}
	iv := strings.TrimSpace(req.IV)
	if iv == "" {
		return ErrIVRequired
	}
	if len(iv) > MaxIVLength {
		return ErrIVTooLong
	}
	return nil
}

// Unknown or malformed ids are reported as not found, same as foreign ones.
func validRecordID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
