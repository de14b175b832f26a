package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// KeySize is the RSA modulus size used for new key pairs.
const KeySize = 4096

// MinKeySize is the smallest modulus accepted when loading existing keys.
const MinKeySize = 2048

// KeyPair holds a freshly generated key pair in PEM form. The private key
// is handed to the user exactly once; the system never stores it.
type KeyPair struct {
	PrivateKeyPEM string
	PublicKeyPEM  string
}

// GenerateKeyPair creates a new RSA key pair for end-to-end encryption.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, KeySize)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating key pair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return KeyPair{}, fmt.Errorf("encoding private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("encoding public key: %w", err)
	}

	return KeyPair{
		PrivateKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})),
		PublicKeyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
	}, nil
}

// ParsePrivateKey parses a PEM private key. Both PKCS#8 and PKCS#1
// encodings are accepted; older clients exported PKCS#1.
func ParsePrivateKey(pemText string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, ErrInvalidKeyFormat
	}

	var priv *rsa.PrivateKey
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrInvalidKeyFormat
		}
		priv = rsaKey
	} else if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		priv = key
	} else {
		return nil, ErrInvalidKeyFormat
	}

	if priv.N.BitLen() < MinKeySize {
		return nil, ErrInvalidKeyFormat
	}
	return priv, nil
}

// ParsePublicKey parses a PEM public key. Both PKIX and PKCS#1 encodings
// are accepted.
func ParsePublicKey(pemText string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, ErrInvalidKeyFormat
	}

	var pub *rsa.PublicKey
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, ErrInvalidKeyFormat
		}
		pub = rsaKey
	} else if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		pub = key
	} else {
		return nil, ErrInvalidKeyFormat
	}

	if pub.N.BitLen() < MinKeySize {
		return nil, ErrInvalidKeyFormat
	}
	return pub, nil
}
