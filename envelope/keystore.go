package envelope

import (
	"crypto/rsa"
	"sync"
)

// KeyStore holds one session's private key in memory. The key is supplied
// by the user, lives only for the lifetime of the session, and is reachable
// solely through Open — it is never serialized, logged, or returned by an
// accessor. Losing it makes prior ciphertexts unrecoverable; there is no
// recovery path.
type KeyStore struct {
	mu   sync.Mutex
	priv *rsa.PrivateKey
}

func NewKeyStore() *KeyStore {
	return &KeyStore{}
}

// Load parses and holds a PEM private key for the remainder of the session.
func (s *KeyStore) Load(pemText string) error {
	priv, err := ParsePrivateKey(pemText)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.priv = priv
	s.mu.Unlock()
	return nil
}

func (s *KeyStore) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priv != nil
}

// Open decodes and decrypts a wire envelope with the held key.
func (s *KeyStore) Open(wire string) (string, error) {
	s.mu.Lock()
	priv := s.priv
	s.mu.Unlock()
	if priv == nil {
		return "", ErrKeyNotLoaded
	}

	env, err := Decode(wire)
	if err != nil {
		return "", err
	}
	return env.Open(priv)
}

// Close drops the held key. The store can be reloaded, but a cleared key
// cannot be read back out.
func (s *KeyStore) Close() {
	s.mu.Lock()
	s.priv = nil
	s.mu.Unlock()
}
