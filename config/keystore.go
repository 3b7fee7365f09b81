package config

import (
	"errors"
	"fmt"
	"strings"
)

// KeyStoreBackend selects where the signing key is fetched from.
type KeyStoreBackend string

const (
	KeyStoreS3             KeyStoreBackend = "s3"
	KeyStoreSecretsManager KeyStoreBackend = "secretsmanager"
	KeyStoreRedis          KeyStoreBackend = "redis"
	KeyStorePostgres       KeyStoreBackend = "postgres"
	KeyStoreFile           KeyStoreBackend = "file"
)

// UnmarshalText implements encoding.TextUnmarshaler for KeyStoreBackend.
func (b *KeyStoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch KeyStoreBackend(v) {
	case KeyStoreS3, KeyStoreSecretsManager, KeyStoreRedis, KeyStorePostgres, KeyStoreFile:
		*b = KeyStoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid KeyStoreBackend: %q (valid options: s3, secretsmanager, redis, postgres, file)", v)
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"authorizer"`
	Password string `env:"PASSWORD" envDefault:"authorizer"`
	Name     string `env:"NAME"     envDefault:"authorizer"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart creates the signing_keys table during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	Prefix             string   `env:"PREFIX"               envDefault:"signing-key:"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:""`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// KeyStoreConfig groups signing key backend configuration.
type KeyStoreConfig struct {
	Backend KeyStoreBackend `env:"KEYSTORE_BACKEND" envDefault:"s3"`

	// EncryptionKey seals key material in the postgres backend.
	// Required outside development when Backend=postgres.
	EncryptionKey string `env:"KEYSTORE_ENCRYPTION_KEY"`

	// FileDir is the root directory for the file backend.
	FileDir string `env:"KEYSTORE_FILE_DIR" envDefault:"./keys"`

	Postgres DBConfig    `envPrefix:"KEYSTORE_DB_"`
	Redis    RedisConfig `envPrefix:"KEYSTORE_REDIS_"`
}

// Sanitize trims whitespace from backend settings.
func (c *KeyStoreConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = KeyStoreS3
	}
	c.FileDir = strings.TrimSpace(c.FileDir)
	c.Redis.URI = strings.TrimSpace(c.Redis.URI)
	c.Redis.SentinelNodes = trimList(c.Redis.SentinelNodes)
	c.Redis.ClusterNodes = trimList(c.Redis.ClusterNodes)
}

// Validate checks the selected backend has what it needs.
func (c *KeyStoreConfig) Validate(isDev bool) error {
	switch c.Backend {
	case KeyStorePostgres:
		if c.EncryptionKey == "" && !isDev {
			return errors.New("KEYSTORE_ENCRYPTION_KEY is required for the postgres backend outside development")
		}
	case KeyStoreFile:
		if c.FileDir == "" {
			return errors.New("KEYSTORE_FILE_DIR is required for the file backend")
		}
	case KeyStoreRedis:
		if !c.Redis.UseCluster && !c.Redis.UseSentinel && c.Redis.URI == "" {
			return errors.New("KEYSTORE_REDIS_URI is required for the redis backend")
		}
	}
	return nil
}
