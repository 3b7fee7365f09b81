package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-cdn-authorizer/config"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/filekeys"
	"github.com/target/mmk-cdn-authorizer/internal/testutil"
)

func testCommandContext(out io.Writer) *commandContext {
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: config.AppConfig{
			AuthorisedDomains: []string{"example.com", "acme.org"},
			CloudFront: config.CloudFrontConfig{
				KeyBucket:          "keys",
				KeyObject:          "pk.pem",
				KeyID:              "KID",
				CookieDomain:       "cdn.example.com",
				CookieValidityDays: 1,
			},
		},
		Out: out,
	}
}

func TestRunCheckEmail(t *testing.T) {
	var out bytes.Buffer
	cmdCtx := testCommandContext(&out)

	require.NoError(t, runCheckEmail(cmdCtx, []string{"jane@sub.example.com", "bob@acme.org"}))
	assert.Contains(t, out.String(), "approved (matched example.com)")
	assert.Contains(t, out.String(), "approved (matched acme.org)")

	out.Reset()
	err := runCheckEmail(cmdCtx, []string{"jane@evilacme.org", "jane@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out.String(), "denied")

	assert.Error(t, runCheckEmail(cmdCtx, nil))
}

func TestParsePutKeyFlags(t *testing.T) {
	cf := config.CloudFrontConfig{KeyBucket: "keys", KeyObject: "pk.pem"}

	opts, err := parsePutKeyFlags([]string{"-file", "k.pem"}, cf)
	require.NoError(t, err)
	assert.Equal(t, "keys", opts.Bucket)
	assert.Equal(t, "pk.pem", opts.Key)

	opts, err = parsePutKeyFlags([]string{"-file", "k.pem", "-bucket", "other", "-key", "x.pem"}, cf)
	require.NoError(t, err)
	assert.Equal(t, "other", opts.Bucket)
	assert.Equal(t, "x.pem", opts.Key)

	_, err = parsePutKeyFlags(nil, cf)
	assert.Error(t, err)

	_, err = parsePutKeyFlags([]string{"-file", "k.pem", "-timeout", "0s"}, cf)
	assert.Error(t, err)
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultCommandTimeout, opts.Timeout)

	_, err = parseMigrateFlags([]string{"-timeout", "-1s"})
	assert.Error(t, err)
}

func TestVerifyKey(t *testing.T) {
	dir := t.TempDir()
	_, pkcs1, _ := testutil.RSAKeyPEM(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "keys"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys", "pk.pem"), pkcs1, 0o600))

	store, err := filekeys.NewKeyStore(dir)
	require.NoError(t, err)

	var out bytes.Buffer
	cmdCtx := testCommandContext(&out)
	require.NoError(t, verifyKey(context.Background(), &out, store, cmdCtx.Config.CloudFront))
	assert.Contains(t, out.String(), "rsa-2048")
	assert.Contains(t, out.String(), "http*://cdn.example.com/*")

	cf := cmdCtx.Config.CloudFront
	cf.KeyObject = "missing.pem"
	assert.Error(t, verifyKey(context.Background(), &out, store, cf))
}

func TestPrintUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printUsage(&out))
	for name := range commands() {
		assert.Contains(t, out.String(), name)
	}
}

func TestRunMigrations_RequiresPostgres(t *testing.T) {
	cmdCtx := testCommandContext(io.Discard)
	cmdCtx.Config.KeyStore.Backend = config.KeyStoreS3
	assert.Error(t, runMigrations(cmdCtx, nil))
}
