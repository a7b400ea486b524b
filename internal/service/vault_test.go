package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vaultpass/securevault-go/internal/model"
	"github.com/vaultpass/securevault-go/internal/repository"
)

const testIV = "00112233445566778899aabbccddeeff"

func newTestVaultService() *VaultService {
	return NewVaultService(repository.NewMemoryVaultRepository())
}

func TestVaultCreate_Validation(t *testing.T) {
	svc := newTestVaultService()

	tests := []struct {
		name string
		req  model.VaultRecordRequest
		want error
	}{
		{"missing ciphertext", model.VaultRecordRequest{IV: testIV}, ErrCiphertextRequired},
		{"missing iv", model.VaultRecordRequest{Ciphertext: "Y3Q="}, ErrIVRequired},
		{"iv too long", model.VaultRecordRequest{Ciphertext: "Y3Q=", IV: testIV + testIV + "00"}, ErrIVTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVaultLifecycle(t *testing.T) {
	svc := newTestVaultService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, model.VaultRecordRequest{Ciphertext: "Y3Q=", IV: testIV})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("expected a uuid id, got %q", created.ID)
	}

	updated, err := svc.Update(ctx, 1, created.ID, model.VaultRecordRequest{Ciphertext: "bmV3", IV: testIV})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.ID != created.ID || updated.Ciphertext != "bmV3" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	list, err := svc.List(ctx, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}

	if err := svc.Delete(ctx, 1, created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := svc.Delete(ctx, 1, created.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("second delete: expected ErrRecordNotFound, got %v", err)
	}

	list, _ = svc.List(ctx, 1)
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestVaultForeignRecordIsNotFound(t *testing.T) {
	svc := newTestVaultService()
	ctx := context.Background()

	rec, _ := svc.Create(ctx, 1, model.VaultRecordRequest{Ciphertext: "Y3Q=", IV: testIV})

	if _, err := svc.Update(ctx, 2, rec.ID, model.VaultRecordRequest{Ciphertext: "bmV3", IV: testIV}); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("foreign update: expected ErrRecordNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 2, rec.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("foreign delete: expected ErrRecordNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 1, "not-a-uuid"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("malformed id: expected ErrRecordNotFound, got %v", err)
	}

	list, _ := svc.List(ctx, 2)
	if len(list) != 0 {
		t.Errorf("user 2 sees %d foreign records", len(list))
	}
}
