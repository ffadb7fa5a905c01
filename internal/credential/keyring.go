package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "translation-connector"

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
		FileDir:                  "~/.config/translation-connector/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("translation-connector-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// contactKeyName builds the keyring entry name for a provider's client
// contact key.
func contactKeyName(providerID string) string {
	return "client_contact_key:" + providerID
}

// GetContactKey retrieves the vendor client contact key for a provider from
// the system keyring. An empty string with a nil error means the key has
// never been configured.
func GetContactKey(providerID string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(contactKeyName(providerID))
	if err == keyring.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting contact key for provider %q: %w", providerID, err)
	}

	return string(item.Data), nil
}

// SetContactKey stores the vendor client contact key for a provider in the
// system keyring.
func SetContactKey(providerID, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  contactKeyName(providerID),
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting contact key for provider %q: %w", providerID, err)
	}

	return nil
}

// DeleteContactKey removes a provider's client contact key from the system
// keyring.
func DeleteContactKey(providerID string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(contactKeyName(providerID))
	if err != nil && err != keyring.ErrKeyNotFound {
		return fmt.Errorf("deleting contact key for provider %q: %w", providerID, err)
	}

	return nil
}
