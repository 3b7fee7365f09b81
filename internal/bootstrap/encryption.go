package bootstrap

import (
	"log/slog"

	"github.com/target/mmk-cdn-authorizer/internal/adapters/postgres"
)

// CreateEncryptor creates the at-rest cipher for the postgres key store.
// A 64-char hex key is used directly; any other value is hashed to 32 bytes.
// An empty key yields the plain encoder (development only, enforced by config validation).
//
//nolint:ireturn // Returning interface is intentional for encryptor abstraction
func CreateEncryptor(key string, logger *slog.Logger) (postgres.Encryptor, error) {
	if key == "" {
		if logger != nil {
			logger.Warn("encryption key is empty, signing keys are stored unencrypted")
		}
		return postgres.PlainEncryptor{}, nil
	}
	return postgres.EncryptorFromSecret(key)
}
