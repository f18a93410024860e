package crypto

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	xchacha "golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrFormat reports a ciphertext blob that does not parse as
	// nonce:tag:ciphertext.
	ErrFormat = errors.New("crypto: malformed ciphertext blob")
	// ErrAuthentication reports an AEAD tag that failed verification.
	ErrAuthentication = errors.New("crypto: message authentication failed")
)

// Engine holds the process-wide record key. The key is derived once at
// construction and lives only in (locked) memory until Close.
type Engine struct {
	aead   cipher.AEAD
	encKey []byte
	macKey []byte
	closed bool
}

// NewEngine derives the record-encryption key and the audit-chain MAC key
// from the externally supplied master secret and salt. The Argon2id output
// is split with HKDF so the two keys are independent.
func NewEngine(master, salt []byte) (*Engine, error) {
	if len(master) == 0 || len(salt) == 0 {
		return nil, errors.New("crypto: master secret and salt are required")
	}
	root := DeriveKey(master, KDFParams{M: defaultKDF.M, T: defaultKDF.T, P: defaultKDF.P, Salt: salt})
	defer Zero(root)

	stream := hkdf.New(sha256.New, root, salt, []byte("vault/record-keys/v1"))
	encKey := make([]byte, xchacha.KeySize)
	macKey := make([]byte, 32)
	if _, err := io.ReadFull(stream, encKey); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(stream, macKey); err != nil {
		return nil, err
	}
	_ = lockMemory(encKey)
	_ = lockMemory(macKey)

	aead, err := xchacha.NewX(encKey)
	if err != nil {
		return nil, err
	}
	return &Engine{aead: aead, encKey: encKey, macKey: macKey}, nil
}

// Encrypt seals plaintext under a fresh random nonce and serializes the
// result as hex(nonce):hex(tag):hex(ciphertext). Nonce and tag are not
// secret; the layout must stay stable for records already at rest.
func (e *Engine) Encrypt(plaintext []byte) (string, error) {
	if e.closed {
		return "", errors.New("crypto: engine closed")
	}
	nonce := make([]byte, xchacha.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := e.aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - e.aead.Overhead()
	ct, tag := sealed[:split], sealed[split:]
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt parses a nonce:tag:ciphertext blob and opens it. A blob that does
// not split into exactly three hex fields is ErrFormat; a tag that fails
// verification is ErrAuthentication.
func (e *Engine) Decrypt(blob string) ([]byte, error) {
	if e.closed {
		return nil, errors.New("crypto: engine closed")
	}
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		return nil, ErrFormat
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != xchacha.NonceSizeX {
		return nil, ErrFormat
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != e.aead.Overhead() {
		return nil, ErrFormat
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, ErrFormat
	}
	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	pt, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return pt, nil
}

// Digest computes the write-time integrity digest over the exact plaintext
// that gets encrypted. It is deliberately independent of the AEAD tag.
func (e *Engine) Digest(plaintext []byte) string {
	sum := sha256.Sum256(plaintext)
	return hex.EncodeToString(sum[:])
}

// Chain extends an HMAC chain: mac(prev || msg) under the audit MAC key.
func (e *Engine) Chain(prev, msg []byte) []byte {
	mac := hmac.New(sha256.New, e.macKey)
	mac.Write(prev)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Close zeroes and unlocks the key material. The engine is unusable after.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	Zero(e.encKey)
	Zero(e.macKey)
	_ = unlockMemory(e.encKey)
	_ = unlockMemory(e.macKey)
	e.aead = nil
}
