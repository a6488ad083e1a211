package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "inbox"

// Keyring item keys.
const (
	ClaudeAPIKey = "claude-api-key"
	GeminiAPIKey = "gemini-api-key"
	IMAPPassword = "imap-password"
)

// envOverrides lists the environment variables checked before the keyring,
// in order.
var envOverrides = map[string][]string{
	ClaudeAPIKey: {"ANTHROPIC_API_KEY"},
	GeminiAPIKey: {"GEMINI_API_KEY", "API_KEY"},
	IMAPPassword: {"INBOX_IMAP_PASSWORD"},
}

// ErrNotFound is returned when a credential is in neither the environment
// nor the keyring.
var ErrNotFound = errors.New("credential not found")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/inbox/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("inbox-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Lookup returns a credential, preferring its environment variables over
// the keyring. A missing credential is reported as ErrNotFound.
func Lookup(key string) (string, error) {
	for _, env := range envOverrides[key] {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}

	v, err := Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return v, err
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Label: "inbox " + key,
		Data:  []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
