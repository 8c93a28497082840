package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	secretLength    = 32
	secretHexLength = 64
	secretFile      = "jwt.key"
)

// ResolveSecret returns the configured signing secret. When none is set it
// loads <dir>/jwt.key, generating and persisting one on first start. With no
// dir either, a random per-process secret is returned and persisted is false.
func ResolveSecret(configured, dir string) (secret []byte, persisted bool, err error) {
	if configured != "" {
		return []byte(configured), true, nil
	}
	if dir == "" {
		b := make([]byte, secretLength)
		if _, err := rand.Read(b); err != nil {
			return nil, false, fmt.Errorf("generate token secret: %w", err)
		}
		return b, false, nil
	}

	keyPath := filepath.Join(dir, secretFile)

	//#nosec G304 -- path derived from configured data dir
	if data, err := os.ReadFile(keyPath); err == nil {
		keyHex := strings.TrimSpace(string(data))
		if len(keyHex) != secretHexLength {
			return nil, false, fmt.Errorf("invalid token secret length: expected %d hex chars, got %d", secretHexLength, len(keyHex))
		}
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, false, fmt.Errorf("invalid token secret format: %w", err)
		}
		return key, true, nil
	}

	key := make([]byte, secretLength)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate token secret: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, false, fmt.Errorf("create secret directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, false, fmt.Errorf("save token secret: %w", err)
	}
	return key, true, nil
}
