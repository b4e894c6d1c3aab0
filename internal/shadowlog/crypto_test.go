package shadowlog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	sum := sha256.Sum256([]byte("test-key"))
	c, err := NewCipherWithKey(sum[:])
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := testCipher(t)

	cases := []string{
		"",
		"plain ascii",
		"unicode: 日本語 émojis 🔒 ümlauts",
		`{"nested":"json","n":42}`,
		string(bytes.Repeat([]byte("x"), 100_000)),
	}
	for _, plaintext := range cases {
		env, err := c.Encrypt([]byte(plaintext))
		if err != nil {
			t.Fatalf("encrypt %q: %v", plaintext[:min(20, len(plaintext))], err)
		}
		got, err := c.Decrypt(env)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if string(got) != plaintext {
			t.Errorf("round trip mangled plaintext of length %d", len(plaintext))
		}
	}
}

func TestEnvelopeShape(t *testing.T) {
	c := testCipher(t)

	env, err := c.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}

	iv, err := hex.DecodeString(env.IV)
	if err != nil || len(iv) != 16 {
		t.Errorf("IV must be 16 hex-encoded bytes, got %q", env.IV)
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil || len(tag) != 16 {
		t.Errorf("auth tag must be 16 hex-encoded bytes, got %q", env.AuthTag)
	}
	if _, err := hex.DecodeString(env.Data); err != nil {
		t.Errorf("data must be hex, got %q", env.Data)
	}
}

func TestFreshIVPerEntry(t *testing.T) {
	c := testCipher(t)

	a, _ := c.Encrypt([]byte("same plaintext"))
	b, _ := c.Encrypt([]byte("same plaintext"))
	if a.IV == b.IV {
		t.Error("IV must be random per entry")
	}
	if a.Data == b.Data {
		t.Error("identical plaintexts must not produce identical ciphertexts")
	}
}

func TestTamperDetection(t *testing.T) {
	c := testCipher(t)

	env, err := c.Encrypt([]byte("the operator approved factory.reset"))
	if err != nil {
		t.Fatal(err)
	}

	flip := func(s string) string {
		b := []byte(s)
		if b[0] == 'a' {
			b[0] = 'b'
		} else {
			b[0] = 'a'
		}
		return string(b)
	}

	tampered := env
	tampered.Data = flip(env.Data)
	if _, err := c.Decrypt(tampered); err == nil {
		t.Error("tampered ciphertext must fail to decrypt")
	}

	tampered = env
	tampered.AuthTag = flip(env.AuthTag)
	if _, err := c.Decrypt(tampered); err == nil {
		t.Error("tampered auth tag must fail to decrypt")
	}

	tampered = env
	tampered.IV = flip(env.IV)
	if _, err := c.Decrypt(tampered); err == nil {
		t.Error("tampered IV must fail to decrypt")
	}
}

func TestWrongKeyFails(t *testing.T) {
	c := testCipher(t)
	env, err := c.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256([]byte("a different key"))
	other, err := NewCipherWithKey(sum[:])
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Decrypt(env); err == nil {
		t.Error("decrypt with the wrong key must fail")
	}
}

func TestKeyLengthEnforced(t *testing.T) {
	if _, err := NewCipherWithKey([]byte("short")); err == nil {
		t.Error("non-32-byte key must be rejected")
	}
}

func TestDecryptRejectsBadHex(t *testing.T) {
	c := testCipher(t)
	if _, err := c.Decrypt(Envelope{IV: "zz", AuthTag: "zz", Data: "zz"}); err == nil {
		t.Error("non-hex envelope must be rejected")
	}
	if _, err := c.Decrypt(Envelope{IV: "00", AuthTag: "00", Data: ""}); err == nil {
		t.Error("truncated IV and tag must be rejected")
	}
}
