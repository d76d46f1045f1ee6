package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"outreach-engine/internal/config"
)

// KeyringService groups the engine's secrets in the OS keychain.
const KeyringService = "outreach-engine"

func GetOpenAIKey(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		key, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(key) != "" {
			return key, nil
		}
	}
	return "", errors.New("OpenAI API key not found in keychain")
}

func SetOpenAIKey(keyringAccount string, key string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

func DeleteOpenAIKey(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func OpenAIKeyringAccount(cfg config.Config) string {
	account := strings.TrimSpace(cfg.OpenAI.KeyringAccount)
	if account == "" {
		account = "default"
	}
	return fmt.Sprintf("outreach:openai:%s", account)
}
