// Package vault encrypts provider secrets at rest with AES-256-GCM under a
// key derived from the deployment passphrase via scrypt.
//
// Stored format is colon-delimited hex: salt:nonce:tag:ciphertext, with a
// fresh 16-byte salt and 12-byte nonce per encryption. Three-segment values
// (nonce:tag:ciphertext) predate per-record salts and still decrypt using
// the legacy static salt.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/scrypt"

	"order-hub/apperrors"
)

const (
	saltSize  = 16
	nonceSize = 12
	tagSize   = 16
	keySize   = 32

	scryptN = 32768
	scryptR = 8
	scryptP = 1

	// legacySalt matches values written before per-record salts existed.
	legacySalt = "salt"

	// MaskedValue replaces any present secret in external-facing responses.
	MaskedValue = "***"
)

// Vault derives per-record keys from the deployment passphrase. It holds no
// mutable state and is safe for concurrent use.
type Vault struct {
	passphrase string
}

func New(passphrase string) (*Vault, error) {
	if passphrase == "" {
		return nil, apperrors.Encryption("encryption passphrase is not configured", nil)
	}
	return &Vault{passphrase: passphrase}, nil
}

// Encrypt seals plaintext and returns salt:nonce:tag:ciphertext in hex.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", apperrors.Encryption("failed to generate salt", err)
	}

	gcm, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", apperrors.Encryption("failed to generate nonce", err)
	}

	// Seal appends the auth tag to the ciphertext; split it back out so the
	// stored value keeps the tag as its own segment.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt opens a stored value in either the current four-segment or the
// legacy three-segment format. Malformed input or a failed auth check is an
// EncryptionError for that record, never a panic.
func (v *Vault) Decrypt(stored string) (string, error) {
	parts := strings.Split(stored, ":")

	var salt []byte
	switch len(parts) {
	case 4:
		var err error
		salt, err = hex.DecodeString(parts[0])
		if err != nil || len(salt) != saltSize {
			return "", apperrors.Encryption("malformed ciphertext: bad salt segment", err)
		}
		parts = parts[1:]
	case 3:
		salt = []byte(legacySalt)
	default:
		return "", apperrors.Encryption("malformed ciphertext: wrong segment count", nil)
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", apperrors.Encryption("malformed ciphertext: bad nonce segment", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", apperrors.Encryption("malformed ciphertext: bad tag segment", err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", apperrors.Encryption("malformed ciphertext: bad data segment", err)
	}

	gcm, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", apperrors.Encryption("decryption failed: ciphertext rejected", err)
	}
	return string(plaintext), nil
}

// Mask returns the fixed placeholder for a present secret, empty otherwise.
func Mask(secret *string) *string {
	if secret == nil || *secret == "" {
		return nil
	}
	masked := MaskedValue
	return &masked
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(v.passphrase), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, apperrors.Encryption("key derivation failed", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Encryption("cipher initialization failed", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.Encryption("cipher initialization failed", err)
	}
	return gcm, nil
}
