// Package auth implements request signing for the exchange's RSA-PSS scheme.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"

	"kalshigo/pkg/core"
)

// Authentication header names expected by the exchange.
const (
	HeaderKey       = "KALSHI-ACCESS-KEY"
	HeaderTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	HeaderSignature = "KALSHI-ACCESS-SIGNATURE"
)

// Credentials holds the API key id and the RSA private key used for signing.
// The value is owned by the client for its lifetime and never persisted here;
// loading key material from disk is the caller's job (see LoadPrivateKeyFile).
type Credentials struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// Signer produces RSA-PSS signatures over the exchange's canonical signing
// string. It holds no mutable state and is safe for concurrent use.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner validates the key material and returns a Signer.
func NewSigner(key *rsa.PrivateKey) (*Signer, error) {
	if key == nil {
		return nil, &core.SigningError{Reason: "nil private key"}
	}
	if err := key.Validate(); err != nil {
		return nil, &core.SigningError{Reason: "invalid private key", Err: err}
	}
	return &Signer{key: key}, nil
}

// CanonicalMessage builds the exact byte sequence the signature covers:
// the decimal timestamp, the uppercase method, and the path with any query
// string stripped.
func CanonicalMessage(timestampMs int64, method, path string) []byte {
	path, _, _ = strings.Cut(path, "?")
	var b strings.Builder
	b.WriteString(strconv.FormatInt(timestampMs, 10))
	b.WriteString(strings.ToUpper(method))
	b.WriteString(path)
	return []byte(b.String())
}

// Sign signs the canonical message for the given timestamp, method and path.
// The scheme is PSS with SHA-256 and salt length equal to the digest length;
// signatures are probabilistic, so two signatures over the same input will
// differ yet both verify.
func (s *Signer) Sign(timestampMs int64, method, path string) ([]byte, error) {
	hashed := sha256.Sum256(CanonicalMessage(timestampMs, method, path))

	sig, err := rsa.SignPSS(
		rand.Reader,
		s.key,
		crypto.SHA256,
		hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash},
	)
	if err != nil {
		return nil, &core.SigningError{Reason: "rsa-pss sign failed", Err: err}
	}
	return sig, nil
}

// Headers returns the three authentication headers for a request signed at
// the given timestamp.
func (s *Signer) Headers(keyID string, timestampMs int64, method, path string) (map[string]string, error) {
	sig, err := s.Sign(timestampMs, method, path)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		HeaderKey:       keyID,
		HeaderTimestamp: strconv.FormatInt(timestampMs, 10),
		HeaderSignature: base64.StdEncoding.EncodeToString(sig),
	}, nil
}
