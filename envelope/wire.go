package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"encoding/base64"
	"strings"
)

// Envelope is one decoded message in either wire variant. Open recovers the
// plaintext using the holder's private key; it is the only operation a
// decoded envelope supports.
type Envelope interface {
	Open(priv *rsa.PrivateKey) (string, error)
}

// AEADEnvelope is the current five-field form:
// iv | recipientWrappedKey | senderWrappedKey | ciphertext | authTag.
// All new envelopes are written in this form.
type AEADEnvelope struct {
	IV           []byte
	RecipientKey []byte
	SenderKey    []byte
	Ciphertext   []byte
	Tag          []byte
}

// LegacyEnvelope is the retired three-field CBC form:
// iv | wrappedKey | ciphertext. It remains decodable because stored history
// contains it, but is never produced by new writers.
type LegacyEnvelope struct {
	IV         []byte
	WrappedKey []byte
	Ciphertext []byte
}

// Decode splits a wire envelope into its variant by field count. Anything
// other than exactly five or exactly three fields is malformed.
func Decode(wire string) (Envelope, error) {
	parts := strings.Split(wire, fieldSep)

	raw := make([][]byte, len(parts))
	for i, part := range parts {
		decoded, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return nil, ErrMalformedEnvelope
		}
		raw[i] = decoded
	}

	switch len(raw) {
	case 5:
		return &AEADEnvelope{
			IV:           raw[0],
			RecipientKey: raw[1],
			SenderKey:    raw[2],
			Ciphertext:   raw[3],
			Tag:          raw[4],
		}, nil
	case 3:
		return &LegacyEnvelope{
			IV:         raw[0],
			WrappedKey: raw[1],
			Ciphertext: raw[2],
		}, nil
	default:
		return nil, ErrMalformedEnvelope
	}
}

// Open unwraps the message key from whichever slot matches priv, then
// decrypts and authenticates in one step. A tag mismatch anywhere in the
// envelope yields ErrAuthenticationFailed and no plaintext.
func (e *AEADEnvelope) Open(priv *rsa.PrivateKey) (string, error) {
	key, err := unwrapKey(priv, e.RecipientKey, e.SenderKey)
	if err != nil {
		return "", err
	}
	if len(key) != symKeySize || len(e.IV) != ivSize {
		return "", ErrAuthenticationFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return "", ErrAuthenticationFailed
	}

	sealed := append(append([]byte{}, e.Ciphertext...), e.Tag...)
	plaintext, err := aead.Open(nil, e.IV, sealed, nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	return string(plaintext), nil
}

// Open decrypts a legacy CBC envelope. Legacy writers wrapped the message
// key with PKCS#1 v1.5 and carried a single slot.
func (e *LegacyEnvelope) Open(priv *rsa.PrivateKey) (string, error) {
	key, err := rsa.DecryptPKCS1v15(nil, priv, e.WrappedKey)
	if err != nil {
		return "", ErrKeyRecoveryFailed
	}
	if len(key) != symKeySize || len(e.IV) != aes.BlockSize {
		return "", ErrAuthenticationFailed
	}
	if len(e.Ciphertext) == 0 || len(e.Ciphertext)%aes.BlockSize != 0 {
		return "", ErrAuthenticationFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrAuthenticationFailed
	}

	plaintext := make([]byte, len(e.Ciphertext))
	cipher.NewCBCDecrypter(block, e.IV).CryptBlocks(plaintext, e.Ciphertext)

	unpadded, err := stripPKCS7(plaintext)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	return string(unpadded), nil
}

func stripPKCS7(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrAuthenticationFailed
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrAuthenticationFailed
		}
	}
	return data[:len(data)-n], nil
}
