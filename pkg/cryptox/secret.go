package cryptox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MinSecretSize is the smallest accepted signing secret, in bytes.
const MinSecretSize = 32

var ErrSecretTooShort = fmt.Errorf("secret must be at least %d bytes", MinSecretSize)

// LoadOrGenerateSecret reads a base64url secret from path, creating the file
// with size fresh random bytes when it does not exist yet.
func LoadOrGenerateSecret(path string, size int) ([]byte, error) {
	if size < MinSecretSize {
		size = MinSecretSize
	}
	path = filepath.Clean(path)

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		return DecodeSecret(string(raw))
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read secret file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create secret dir: %w", err)
	}
	secret, err := randomBytes(size)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(base64.RawURLEncoding.EncodeToString(secret)), 0600); err != nil {
		return nil, fmt.Errorf("write secret file: %w", err)
	}
	return secret, nil
}

// DecodeSecret accepts a base64url (padded or not) encoded secret.
func DecodeSecret(encoded string) ([]byte, error) {
	encoded = strings.TrimRight(strings.TrimSpace(encoded), "=")
	secret, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	if len(secret) < MinSecretSize {
		return nil, ErrSecretTooShort
	}
	return secret, nil
}
