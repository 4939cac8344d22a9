// Package keys handles the treasury payout signing key: encryption for
// storage at rest and loading from the environment.
package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"

	"github.com/LilFatFrank/scratch-off/pkg/config"
)

// DeriveMasterKey stretches an operator-supplied secret into a 32-byte
// AES-256 key using HKDF with SHA-256.
func DeriveMasterKey(secret string) ([]byte, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("master secret must be at least 16 bytes")
	}

	hkdfReader := hkdf.New(sha256.New, []byte(secret), nil, []byte("treasury-master-key"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}
	return key, nil
}

// EncryptPrivateKey encrypts a 32-byte private key using AES-256-GCM.
// Returns a base64 string containing: nonce || ciphertext || tag
func EncryptPrivateKey(privateKey, masterKey []byte) (string, error) {
	if len(masterKey) != 32 {
		return "", fmt.Errorf("master key must be 32 bytes (AES-256)")
	}
	if len(privateKey) != 32 {
		return "", fmt.Errorf("private key must be 32 bytes (secp256k1)")
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, privateKey, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptPrivateKey reverses EncryptPrivateKey.
func DecryptPrivateKey(encrypted string, masterKey []byte) ([]byte, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes (AES-256)")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	if len(plaintext) != 32 {
		return nil, fmt.Errorf("decrypted key has wrong size: got %d, want 32", len(plaintext))
	}

	return plaintext, nil
}

// LoadPayoutKey reads the treasury signing key from the environment. When
// a master-key secret is configured the key material is expected to be
// AES-GCM encrypted base64; otherwise it is a plain hex key, which is only
// acceptable for local development.
func LoadPayoutKey(cfg *config.ChainConfig) (*ecdsa.PrivateKey, error) {
	raw := strings.TrimSpace(os.Getenv(cfg.PayoutKeyEnv))
	if raw == "" {
		return nil, fmt.Errorf("payout key env %s is not set", cfg.PayoutKeyEnv)
	}

	secret := strings.TrimSpace(os.Getenv(cfg.MasterKeyEnv))
	if secret == "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse payout key: %w", err)
		}
		return key, nil
	}

	masterKey, err := DeriveMasterKey(secret)
	if err != nil {
		return nil, err
	}
	keyBytes, err := DecryptPrivateKey(raw, masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payout key: %w", err)
	}
	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse decrypted payout key: %w", err)
	}
	return key, nil
}
