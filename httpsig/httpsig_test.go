package httpsig

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"
)

func testKeyPEM(t *testing.T) (string, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey() error = %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("x509.MarshalPKCS8PrivateKey() error = %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), pub
}

func TestSignAndVerify(t *testing.T) {
	pemText, pub := testKeyPEM(t)
	signer, err := NewSigner(pemText, "k1")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	in := Input{
		Challenge: "ch-123",
		Method:    "get",
		TargetURI: "https://agents.example.com/api/a2a",
		Host:      "Agents.Example.COM",
		Date:      time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC),
	}
	sigInput, signature, err := signer.Headers(in)
	if err != nil {
		t.Fatalf("Headers() error = %v", err)
	}
	if !strings.Contains(sigInput, `"aid-challenge"`) || !strings.Contains(sigInput, `"@target-uri"`) {
		t.Fatalf("Signature-Input missing covered components: %s", sigInput)
	}
	if !strings.Contains(sigInput, `alg="ed25519"`) {
		t.Fatalf("Signature-Input missing alg: %s", sigInput)
	}

	if err := Verify(pub, in, sigInput, signature); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	pemText, pub := testKeyPEM(t)
	signer, err := NewSigner(pemText, "k1")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	in := Input{
		Challenge: "ch-123",
		Method:    "GET",
		TargetURI: "https://agents.example.com/api/a2a",
		Host:      "agents.example.com",
		Date:      time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC),
	}
	sigInput, signature, err := signer.Headers(in)
	if err != nil {
		t.Fatalf("Headers() error = %v", err)
	}

	in.Challenge = "ch-456"
	if err := Verify(pub, in, sigInput, signature); err == nil {
		t.Fatalf("Verify() accepted a tampered challenge")
	}
}

func TestNewSignerRejectsBadPEM(t *testing.T) {
	if _, err := NewSigner("not a key", "k1"); err != ErrInvalidPEM {
		t.Fatalf("NewSigner() error = %v, want ErrInvalidPEM", err)
	}
}

func TestNewSignerRejectsNonEd25519(t *testing.T) {
	// An RSA or EC key in PKCS#8 must be refused; easiest stand-in is a
	// PEM block holding garbage DER.
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{0x01, 0x02}}))
	if _, err := NewSigner(pemText, "k1"); err == nil {
		t.Fatalf("NewSigner() accepted invalid key material")
	}
}
