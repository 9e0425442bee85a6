package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"

	"kalshigo/pkg/core"
)

// ParsePrivateKey decodes a PEM-encoded RSA private key. PKCS#8 is tried
// first, then PKCS#1. Keys of any other type are rejected.
func ParsePrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, &core.SigningError{Reason: "no PEM block found"}
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, &core.SigningError{Reason: "key is not an RSA private key"}
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, &core.SigningError{Reason: "parse private key", Err: err}
	}
	return rsaKey, nil
}

// LoadPrivateKeyFile reads and parses a PEM private key file. This is a
// convenience for callers; the request pipeline itself never touches the
// filesystem and only ever receives ready Credentials.
func LoadPrivateKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.SigningError{Reason: "read key file", Err: err}
	}
	return ParsePrivateKey(data)
}
