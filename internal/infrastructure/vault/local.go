package vault

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	localKeyVersion = 1
	hkdfSalt        = "stockpilot/vault"
	hkdfInfo        = "integration-credentials/v1"
)

// ErrSealedCredentialsCorrupt means a stored blob could not be opened with the current key
var ErrSealedCredentialsCorrupt = errors.New("vault: sealed credentials cannot be opened")

// LocalVault seals credentials with XChaCha20-Poly1305 and stores them in the database.
// The reference is bound as associated data so a row cannot be moved to another ref.
type LocalVault struct {
	db   *gorm.DB
	key  []byte
	now  func() time.Time
	rand io.Reader
}

// NewLocalVault derives the sealing key from masterKey
func NewLocalVault(db *gorm.DB, masterKey string) (*LocalVault, error) {
	if len(masterKey) < 32 {
		return nil, errors.New("vault master key must be at least 32 characters")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(masterKey), []byte(hkdfSalt), []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}
	return &LocalVault{db: db, key: key, now: time.Now, rand: rand.Reader}, nil
}

// Put seals and upserts the credentials at ref
func (v *LocalVault) Put(ctx context.Context, ref string, creds integration.Credentials) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	nonce, ciphertext, err := v.seal(ref, plaintext)
	if err != nil {
		return err
	}

	now := v.now().UTC()
	row := models.CredentialModel{
		Ref:        ref,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		KeyVersion: localKeyVersion,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return v.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ref"}},
		DoUpdates: clause.AssignmentColumns([]string{"nonce", "ciphertext", "key_version", "updated_at"}),
	}).Create(&row).Error
}

// Get opens the credentials at ref
func (v *LocalVault) Get(ctx context.Context, ref string) (integration.Credentials, error) {
	var row models.CredentialModel
	err := v.db.WithContext(ctx).Where("ref = ?", ref).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return integration.Credentials{}, integration.ErrCredentialsNotFound
	}
	if err != nil {
		return integration.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	plaintext, err := v.open(ref, row.Nonce, row.Ciphertext)
	if err != nil {
		return integration.Credentials{}, err
	}
	var creds integration.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return integration.Credentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the row at ref if present
func (v *LocalVault) Delete(ctx context.Context, ref string) error {
	return v.db.WithContext(ctx).Where("ref = ?", ref).Delete(&models.CredentialModel{}).Error
}

func (v *LocalVault) seal(ref string, plaintext []byte) ([]byte, []byte, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(v.rand, nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, aead.Seal(nil, nonce, plaintext, []byte(ref)), nil
}

func (v *LocalVault) open(ref string, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrSealedCredentialsCorrupt
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(ref))
	if err != nil {
		return nil, ErrSealedCredentialsCorrupt
	}
	return plaintext, nil
}

var _ integration.CredentialVault = (*LocalVault)(nil)
