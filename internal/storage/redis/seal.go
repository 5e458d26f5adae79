package redis

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const sealedPrefix = "sealed:"

var errUnsealFailed = errors.New("could not unseal stored secret")

// sealer encrypts short secrets with NaCl secretbox. A zero sealer passes
// values through unchanged.
type sealer struct {
	key     [32]byte
	enabled bool
}

func newSealer(secret string) sealer {
	if secret == "" {
		return sealer{}
	}
	return sealer{key: sha256.Sum256([]byte(secret)), enabled: true}
}

func (s sealer) seal(plain string) (string, error) {
	if !s.enabled || plain == "" {
		return plain, nil
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

func (s sealer) open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if !s.enabled {
		return "", errUnsealFailed
	}

	box, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil || len(box) < 24 {
		return "", errUnsealFailed
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return "", errUnsealFailed
	}
	return string(plain), nil
}
