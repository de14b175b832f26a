// Package envelope implements the hybrid message cipher: each message is
// encrypted with a fresh AES-256-GCM key, and that key is wrapped twice with
// RSA — once for the recipient and once for the sender, so either party can
// later read the message with only their own private key.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	symKeySize = 32
	ivSize     = 16
	tagSize    = 16

	fieldSep = "|"
)

// Seal encrypts plaintext for the recipient and the sender and returns the
// wire-format envelope. The symmetric key and IV are drawn fresh from a
// cryptographically secure source for every call and never reused.
func Seal(plaintext string, recipientPub, senderPub *rsa.PublicKey) (string, error) {
	key := make([]byte, symKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generating message key: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	recipientKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, recipientPub, key, nil)
	if err != nil {
		return "", fmt.Errorf("wrapping key for recipient: %w", err)
	}
	senderKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, senderPub, key, nil)
	if err != nil {
		return "", fmt.Errorf("wrapping key for sender: %w", err)
	}

	fields := []string{
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(recipientKey),
		base64.StdEncoding.EncodeToString(senderKey),
		base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(tag),
	}
	return strings.Join(fields, fieldSep), nil
}

// unwrapKey attempts each wrapped-key slot in order and returns the first
// successful unwrap. An envelope carries one slot for the recipient and one
// for the sender; the caller cannot know in advance which slot is theirs.
func unwrapKey(priv *rsa.PrivateKey, slots ...[]byte) ([]byte, error) {
	for _, slot := range slots {
		key, err := rsa.DecryptOAEP(sha256.New(), nil, priv, slot, nil)
		if err == nil {
			return key, nil
		}
	}
	return nil, ErrKeyRecoveryFailed
}
