package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	sm "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/target/mmk-cdn-authorizer/config"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/filekeys"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/postgres"
	redisadapter "github.com/target/mmk-cdn-authorizer/internal/adapters/redis"
	s3adapter "github.com/target/mmk-cdn-authorizer/internal/adapters/s3"
	smadapter "github.com/target/mmk-cdn-authorizer/internal/adapters/secretsmanager"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

// KeyStoreDeps groups inputs for BuildKeyStore.
type KeyStoreDeps struct {
	Config config.KeyStoreConfig
	Logger *slog.Logger
}

// BuildKeyStore connects the configured signing key backend. The returned
// close function releases any connection it opened and is never nil.
//
//nolint:ireturn // the key store implementation is chosen at runtime.
func BuildKeyStore(ctx context.Context, deps KeyStoreDeps) (ports.KeyStore, func() error, error) {
	noop := func() error { return nil }
	cfg := deps.Config

	switch cfg.Backend {
	case config.KeyStoreS3, "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("load aws config: %w", err)
		}
		return s3adapter.NewKeyStore(awss3.NewFromConfig(awsCfg)), noop, nil

	case config.KeyStoreSecretsManager:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("load aws config: %w", err)
		}
		return smadapter.NewKeyStore(sm.NewFromConfig(awsCfg)), noop, nil

	case config.KeyStoreRedis:
		client, err := ConnectRedis(ctx, DatabaseConfig{RedisConfig: cfg.Redis, Logger: deps.Logger})
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		return redisadapter.NewKeyStoreWithPrefix(client, cfg.Redis.Prefix), client.Close, nil

	case config.KeyStorePostgres:
		return buildPostgresKeyStore(ctx, deps)

	case config.KeyStoreFile:
		store, err := filekeys.NewKeyStore(cfg.FileDir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	default:
		return nil, noop, fmt.Errorf("unsupported key store backend %q", cfg.Backend)
	}
}

func buildPostgresKeyStore(ctx context.Context, deps KeyStoreDeps) (ports.KeyStore, func() error, error) {
	noop := func() error { return nil }
	cfg := deps.Config

	enc, err := CreateEncryptor(cfg.EncryptionKey, deps.Logger)
	if err != nil {
		return nil, noop, fmt.Errorf("create encryptor: %w", err)
	}

	db, err := ConnectDB(ctx, DatabaseConfig{DBConfig: cfg.Postgres, Logger: deps.Logger})
	if err != nil {
		return nil, noop, fmt.Errorf("connect db: %w", err)
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err := RunMigrations(ctx, db, deps.Logger); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
	} else if deps.Logger != nil {
		deps.Logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	return postgres.NewKeyStore(db, enc), db.Close, nil
}
