package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
)

var (
	testKeysOnce sync.Once
	alicePriv    *rsa.PrivateKey
	bobPriv      *rsa.PrivateKey
	mallotPriv   *rsa.PrivateKey
)

func testKeys(t *testing.T) (alice, bob, mallot *rsa.PrivateKey) {
	t.Helper()
	testKeysOnce.Do(func() {
		var err error
		alicePriv, err = rsa.GenerateKey(rand.Reader, MinKeySize)
		if err != nil {
			panic(err)
		}
		bobPriv, err = rsa.GenerateKey(rand.Reader, MinKeySize)
		if err != nil {
			panic(err)
		}
		mallotPriv, err = rsa.GenerateKey(rand.Reader, MinKeySize)
		if err != nil {
			panic(err)
		}
	})
	return alicePriv, bobPriv, mallotPriv
}

func TestSealOpenRoundTrip(t *testing.T) {
	alice, bob, _ := testKeys(t)

	wire, err := Seal("hello", &bob.PublicKey, &alice.PublicKey)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}

	// recipient reads via the recipient slot
	env, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	plaintext, err := env.Open(bob)
	if err != nil {
		t.Fatalf("recipient open failed: %v", err)
	}
	if plaintext != "hello" {
		t.Fatalf("expected hello got %q", plaintext)
	}

	// sender reads the same envelope via the sender slot
	plaintext, err = env.Open(alice)
	if err != nil {
		t.Fatalf("sender open failed: %v", err)
	}
	if plaintext != "hello" {
		t.Fatalf("expected hello got %q", plaintext)
	}
}

func TestSealProducesFreshEnvelopes(t *testing.T) {
	alice, bob, _ := testKeys(t)

	a, err := Seal("same text", &bob.PublicKey, &alice.PublicKey)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	b, err := Seal("same text", &bob.PublicKey, &alice.PublicKey)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if a == b {
		t.Fatalf("two envelopes of the same plaintext must not be identical")
	}
}

func TestOpenWithUnrelatedKey(t *testing.T) {
	alice, bob, mallot := testKeys(t)

	wire, err := Seal("secret", &bob.PublicKey, &alice.PublicKey)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	env, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if _, err := env.Open(mallot); !errors.Is(err, ErrKeyRecoveryFailed) {
		t.Fatalf("expected ErrKeyRecoveryFailed got %v", err)
	}
}

func TestTamperDetection(t *testing.T) {
	alice, bob, _ := testKeys(t)

	wire, err := Seal("do not touch", &bob.PublicKey, &alice.PublicKey)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}

	fieldNames := []string{"iv", "recipientKey", "senderKey", "ciphertext", "tag"}
	for i, name := range fieldNames {
		parts := strings.Split(wire, fieldSep)
		raw, err := base64.StdEncoding.DecodeString(parts[i])
		if err != nil {
			t.Fatalf("decode field %s: %v", name, err)
		}
		raw[0] ^= 0x01
		parts[i] = base64.StdEncoding.EncodeToString(raw)
		tampered := strings.Join(parts, fieldSep)

		env, err := Decode(tampered)
		if err != nil {
			t.Fatalf("tampered %s should still decode: %v", name, err)
		}
		plaintext, err := env.Open(bob)
		if err == nil {
			t.Fatalf("tampered %s decrypted to %q", name, plaintext)
		}
		if !errors.Is(err, ErrAuthenticationFailed) && !errors.Is(err, ErrKeyRecoveryFailed) {
			t.Fatalf("tampered %s: unexpected error %v", name, err)
		}
	}
}

func TestDecodeFieldCount(t *testing.T) {
	junk := base64.StdEncoding.EncodeToString([]byte("x"))

	for _, count := range []int{1, 2, 4, 6} {
		parts := make([]string, count)
		for i := range parts {
			parts[i] = junk
		}
		if _, err := Decode(strings.Join(parts, fieldSep)); !errors.Is(err, ErrMalformedEnvelope) {
			t.Fatalf("%d fields: expected ErrMalformedEnvelope got %v", count, err)
		}
	}

	if _, err := Decode("not base64!|" + junk + "|" + junk + "|" + junk + "|" + junk); !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("invalid base64: expected ErrMalformedEnvelope got %v", err)
	}
}

// sealLegacy writes the retired three-field CBC form the way the old
// clients did: single PKCS#1 v1.5 wrapped key, CBC with PKCS#7 padding.
func sealLegacy(t *testing.T, plaintext string, pub *rsa.PublicKey) string {
	t.Helper()

	key := make([]byte, symKeySize)
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	if _, err := rand.Read(iv); err != nil {
		t.Fatal(err)
	}

	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append([]byte(plaintext), make([]byte, pad)...)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(pad)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, pub, key)
	if err != nil {
		t.Fatal(err)
	}

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(wrapped),
		base64.StdEncoding.EncodeToString(ct),
	}, fieldSep)
}

func TestLegacyEnvelopeDecodes(t *testing.T) {
	_, bob, _ := testKeys(t)

	wire := sealLegacy(t, "old message", &bob.PublicKey)

	env, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := env.(*LegacyEnvelope); !ok {
		t.Fatalf("expected legacy variant, got %T", env)
	}

	plaintext, err := env.Open(bob)
	if err != nil {
		t.Fatalf("legacy open failed: %v", err)
	}
	if plaintext != "old message" {
		t.Fatalf("expected old message got %q", plaintext)
	}
}

func TestNewWritersProduceAEADForm(t *testing.T) {
	alice, bob, _ := testKeys(t)

	wire, err := Seal("hello", &bob.PublicKey, &alice.PublicKey)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if got := len(strings.Split(wire, fieldSep)); got != 5 {
		t.Fatalf("expected 5 fields got %d", got)
	}

	env, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := env.(*AEADEnvelope); !ok {
		t.Fatalf("expected AEAD variant, got %T", env)
	}
}
