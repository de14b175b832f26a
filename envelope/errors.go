package envelope

import "errors"

var (
	// ErrInvalidKeyFormat is returned when PEM input does not parse as an
	// RSA key of the expected shape.
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrMalformedEnvelope is returned when the wire string does not split
	// into a known field count. No partial parsing is attempted.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrKeyRecoveryFailed is returned when neither wrapped-key slot
	// decrypts with the provided private key.
	ErrKeyRecoveryFailed = errors.New("could not recover message key with either slot")

	// ErrAuthenticationFailed is returned when the ciphertext fails
	// integrity verification. No plaintext is returned alongside it.
	ErrAuthenticationFailed = errors.New("message authentication failed")

	// ErrKeyNotLoaded is returned by KeyStore operations before a private
	// key has been loaded for the session.
	ErrKeyNotLoaded = errors.New("private key not loaded")
)
