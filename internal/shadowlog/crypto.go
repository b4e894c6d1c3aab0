package shadowlog

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	// envKeyName is the environment variable supplying the master key.
	envKeyName = "SHADOW_LOG_KEY"
	// ivSize is the GCM nonce length. 16 bytes, matching the on-disk
	// envelope format; every entry gets a fresh random IV.
	ivSize = 16
	// tagSize is the GCM authentication tag length.
	tagSize = 16
)

// devFallbackSeed derives the development-only key when SHADOW_LOG_KEY
// is unset. Deterministic on purpose so local logs survive restarts;
// never acceptable in production.
const devFallbackSeed = "powergate-dev-shadow-key"

// ErrCiphertextTooShort is returned for envelopes with a truncated IV
// or tag.
var ErrCiphertextTooShort = errors.New("shadowlog: ciphertext too short")

// Envelope is one encrypted record as stored on disk: hex-encoded IV,
// authentication tag, and ciphertext, one JSON object per line.
type Envelope struct {
	IV      string `json:"iv"`
	AuthTag string `json:"authTag"`
	Data    string `json:"data"`
}

// Cipher seals and opens shadow-log envelopes with AES-256-GCM.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from the SHADOW_LOG_KEY environment
// variable. A 64-character hex value is decoded directly; any other
// non-empty value is stretched with SHA-256. When the variable is unset
// a deterministic development key is used and a warning is logged.
func NewCipher() (*Cipher, error) {
	return NewCipherWithKey(deriveKey())
}

// NewCipherWithKey builds a Cipher from an explicit 32-byte key.
func NewCipherWithKey(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("shadowlog: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("shadowlog: create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("shadowlog: create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// deriveKey resolves the 32-byte AES key from the environment.
func deriveKey() []byte {
	raw := os.Getenv(envKeyName)
	if raw == "" {
		slog.Warn("SHADOW_LOG_KEY not set, using insecure development key",
			"env", envKeyName)
		sum := sha256.Sum256([]byte(devFallbackSeed))
		return sum[:]
	}
	if decoded, err := hex.DecodeString(raw); err == nil && len(decoded) == 32 {
		return decoded
	}
	sum := sha256.Sum256([]byte(raw))
	return sum[:]
}

// Encrypt seals plaintext into an Envelope with a fresh random IV.
func (c *Cipher) Encrypt(plaintext []byte) (Envelope, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return Envelope{}, fmt.Errorf("shadowlog: generate IV: %w", err)
	}

	sealed := c.aead.Seal(nil, iv, plaintext, nil)
	// Seal appends the tag to the ciphertext; the envelope stores the
	// two parts separately.
	data, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return Envelope{
		IV:      hex.EncodeToString(iv),
		AuthTag: hex.EncodeToString(tag),
		Data:    hex.EncodeToString(data),
	}, nil
}

// Decrypt opens an Envelope. Any tampering with the ciphertext, IV, or
// tag makes the open fail; altered plaintext is never returned.
func (c *Cipher) Decrypt(env Envelope) ([]byte, error) {
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return nil, fmt.Errorf("shadowlog: decode IV: %w", err)
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil {
		return nil, fmt.Errorf("shadowlog: decode auth tag: %w", err)
	}
	data, err := hex.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("shadowlog: decode data: %w", err)
	}
	if len(iv) != ivSize || len(tag) != tagSize {
		return nil, ErrCiphertextTooShort
	}

	plaintext, err := c.aead.Open(nil, iv, append(data, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("shadowlog: decrypt: %w", err)
	}
	return plaintext, nil
}
