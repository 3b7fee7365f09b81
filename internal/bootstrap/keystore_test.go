package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-cdn-authorizer/config"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/filekeys"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/postgres"
)

func TestBuildKeyStore_File(t *testing.T) {
	store, closeFn, err := BuildKeyStore(context.Background(), KeyStoreDeps{
		Config: config.KeyStoreConfig{Backend: config.KeyStoreFile, FileDir: t.TempDir()},
		Logger: discardLogger(),
	})
	require.NoError(t, err)
	assert.IsType(t, &filekeys.KeyStore{}, store)
	assert.NoError(t, closeFn())
}

func TestBuildKeyStore_Unsupported(t *testing.T) {
	_, closeFn, err := BuildKeyStore(context.Background(), KeyStoreDeps{
		Config: config.KeyStoreConfig{Backend: "dynamodb"},
	})
	assert.Error(t, err)
	require.NotNil(t, closeFn)
	assert.NoError(t, closeFn())
}

func TestBuildKeyStore_RedisUnreachable(t *testing.T) {
	_, _, err := BuildKeyStore(context.Background(), KeyStoreDeps{
		Config: config.KeyStoreConfig{
			Backend: config.KeyStoreRedis,
			Redis:   config.RedisConfig{URI: "127.0.0.1:1"},
		},
	})
	assert.Error(t, err)
}

func TestCreateEncryptor(t *testing.T) {
	enc, err := CreateEncryptor("", discardLogger())
	require.NoError(t, err)
	assert.IsType(t, postgres.PlainEncryptor{}, enc)

	enc, err = CreateEncryptor("some-secret", discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &postgres.AESGCMEncryptor{}, enc)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DBConfig{
		Host: "db", Port: 5432, User: "u", Password: "p@ss/word", Name: "keys", SSLMode: "require",
	})
	assert.Equal(t, "postgres://u:p%40ss%2Fword@db:5432/keys?sslmode=require", dsn)
}
