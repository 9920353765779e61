// Package httpsig builds RFC 9421-style HTTP message signatures over a
// fixed set of covered components: the AID-Challenge header, @method,
// @target-uri, host and date. Ed25519 only.
package httpsig

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPEM       = errors.New("invalid private key PEM")
	ErrNotEd25519       = errors.New("private key is not ed25519")
	ErrInvalidSignature = errors.New("invalid signature")
)

const sigLabel = "sig1"

var coveredComponents = []string{"aid-challenge", "@method", "@target-uri", "host", "date"}

type Signer struct {
	key   ed25519.PrivateKey
	keyID string
}

// NewSigner parses a PKCS#8 PEM-encoded Ed25519 private key.
func NewSigner(pemText, keyID string) (*Signer, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(pemText)))
	if block == nil {
		return nil, ErrInvalidPEM
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkcs8 key: %w", err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, ErrNotEd25519
	}
	if strings.TrimSpace(keyID) == "" {
		keyID = "primary"
	}
	return &Signer{key: key, keyID: keyID}, nil
}

func (s *Signer) KeyID() string { return s.keyID }

func (s *Signer) PublicKeyBase64() string {
	pub, _ := s.key.Public().(ed25519.PublicKey)
	return base64.StdEncoding.EncodeToString(pub)
}

// Input describes the message being signed.
type Input struct {
	Challenge string
	Method    string
	TargetURI string
	Host      string
	Date      time.Time
}

// Headers returns the Signature-Input and Signature header values for
// the message.
func (s *Signer) Headers(in Input) (sigInput, signature string, err error) {
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	params := signatureParams(s.keyID, in.Date)
	base := signatureBase(in, params)
	sig := ed25519.Sign(s.key, []byte(base))
	sigInput = fmt.Sprintf("%s=%s", sigLabel, params)
	signature = fmt.Sprintf("%s=:%s:", sigLabel, base64.StdEncoding.EncodeToString(sig))
	return sigInput, signature, nil
}

// Verify checks a signature produced by Headers against the public key.
// It exists for tests and for peers validating our discovery responses.
func Verify(pub ed25519.PublicKey, in Input, sigInput, signature string) error {
	params, ok := strings.CutPrefix(strings.TrimSpace(sigInput), sigLabel+"=")
	if !ok {
		return ErrInvalidSignature
	}
	encoded, ok := strings.CutPrefix(strings.TrimSpace(signature), sigLabel+"=")
	if !ok {
		return ErrInvalidSignature
	}
	encoded = strings.TrimPrefix(encoded, ":")
	encoded = strings.TrimSuffix(encoded, ":")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	base := signatureBase(in, params)
	if !ed25519.Verify(pub, []byte(base), raw) {
		return ErrInvalidSignature
	}
	return nil
}

func signatureParams(keyID string, created time.Time) string {
	quoted := make([]string, 0, len(coveredComponents))
	for _, c := range coveredComponents {
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}
	return fmt.Sprintf("(%s);created=%d;keyid=%q;alg=%q",
		strings.Join(quoted, " "), created.Unix(), keyID, "ed25519")
}

// signatureBase canonicalizes the covered components, one per line,
// ending with the @signature-params pseudo-header.
func signatureBase(in Input, params string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q: %s\n", "aid-challenge", strings.TrimSpace(in.Challenge))
	fmt.Fprintf(&b, "%q: %s\n", "@method", strings.ToUpper(strings.TrimSpace(in.Method)))
	fmt.Fprintf(&b, "%q: %s\n", "@target-uri", strings.TrimSpace(in.TargetURI))
	fmt.Fprintf(&b, "%q: %s\n", "host", strings.ToLower(strings.TrimSpace(in.Host)))
	fmt.Fprintf(&b, "%q: %s\n", "date", in.Date.UTC().Format(time.RFC1123))
	fmt.Fprintf(&b, "%q: %s", "@signature-params", params)
	return b.String()
}
