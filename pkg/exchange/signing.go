package exchange

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Signer produces the request signature the exchange expects: RSA-PSS
// over SHA-256 of "timestamp + method + path", base64-encoded.
type Signer struct {
	keyID string
	key   *rsa.PrivateKey
}

func NewSigner(keyID string, key *rsa.PrivateKey) *Signer {
	return &Signer{keyID: keyID, key: key}
}

// KeyID returns the access key identifier sent alongside signatures.
func (s *Signer) KeyID() string {
	return s.keyID
}

// Sign signs one request. timestampMs is milliseconds since epoch; path
// is the request path without query string.
func (s *Signer) Sign(timestampMs int64, method, path string) (string, error) {
	msg := strconv.FormatInt(timestampMs, 10) + method + path
	digest := sha256.Sum256([]byte(msg))

	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return "", errors.Wrap(err, "sign request")
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// LoadPrivateKeyPEM parses an RSA private key in PKCS#1 or PKCS#8 PEM form.
func LoadPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block in key data")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

// LoadPrivateKeyFile reads and parses a PEM key file.
func LoadPrivateKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read key file %s", path)
	}
	return LoadPrivateKeyPEM(data)
}
