package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/mmk-cdn-authorizer/config"
	"github.com/target/mmk-cdn-authorizer/internal/adapters/cloudfront"
	"github.com/target/mmk-cdn-authorizer/internal/bootstrap"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const defaultCommandTimeout = 30 * time.Second

// keyWriter is implemented by the backends that can be provisioned from this tool.
type keyWriter interface {
	Put(ctx context.Context, loc authz.KeyLocation, pem []byte) error
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Config: cfg, Out: os.Stdout}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"check-email": {
			name:        "check-email",
			description: "Evaluate one or more email addresses against AUTHORISED_DOMAINS",
			run:         runCheckEmail,
		},
		"put-key": {
			name:        "put-key",
			description: "Store a PEM signing key in the configured redis or postgres backend",
			run:         runPutKey,
		},
		"verify-key": {
			name:        "verify-key",
			description: "Fetch the configured signing key and check it can sign cookies",
			run:         runVerifyKey,
		},
		"migrate": {
			name:        "migrate",
			description: "Create the signing_keys table for the postgres backend",
			run:         runMigrations,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: authorizer-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	for _, name := range []string{"check-email", "put-key", "verify-key", "migrate"} {
		c := commands()[name]
		if err := writef(w, "  %-14s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func runCheckEmail(cmdCtx *commandContext, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: check-email <email> [email...]")
	}
	allow, err := authz.NewAllowList(cmdCtx.Config.AuthorisedDomains)
	if err != nil {
		return fmt.Errorf("authorised domains: %w", err)
	}

	denied := 0
	for _, email := range args {
		decision, matched := allow.Evaluate(email)
		if decision != authz.DecisionApproved {
			denied++
			if err := writef(cmdCtx.Out, "%-40s %s\n", email, decision); err != nil {
				return err
			}
			continue
		}
		if err := writef(cmdCtx.Out, "%-40s %s (matched %s)\n", email, decision, matched); err != nil {
			return err
		}
	}
	if denied > 0 {
		return fmt.Errorf("%d of %d addresses denied", denied, len(args))
	}
	return nil
}

type putKeyOptions struct {
	File    string
	Bucket  string
	Key     string
	Timeout time.Duration
}

func parsePutKeyFlags(args []string, cfg config.CloudFrontConfig) (putKeyOptions, error) {
	fs := flag.NewFlagSet("put-key", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := putKeyOptions{}
	fs.StringVar(&opts.File, "file", "", "Path to the PEM encoded private key")
	fs.StringVar(&opts.Bucket, "bucket", cfg.KeyBucket, "Bucket component of the key location")
	fs.StringVar(&opts.Key, "key", cfg.KeyObject, "Key component of the key location")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the write")

	if err := fs.Parse(args); err != nil {
		return putKeyOptions{}, err
	}
	if opts.File == "" {
		return putKeyOptions{}, errors.New("--file is required")
	}
	if opts.Bucket == "" || opts.Key == "" {
		return putKeyOptions{}, errors.New("--bucket and --key must not be empty")
	}
	if opts.Timeout <= 0 {
		return putKeyOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runPutKey(cmdCtx *commandContext, args []string) error {
	opts, err := parsePutKeyFlags(args, cmdCtx.Config.CloudFront)
	if err != nil {
		return err
	}

	pem, err := os.ReadFile(opts.File)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}
	if _, err := cloudfront.ParsePrivateKey(pem); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	store, closeFn, err := bootstrap.BuildKeyStore(ctx, bootstrap.KeyStoreDeps{
		Config: cmdCtx.Config.KeyStore,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			cmdCtx.Logger.Warn("key store close failed", "error", cerr)
		}
	}()

	w, ok := store.(keyWriter)
	if !ok {
		return fmt.Errorf("backend %q is read-only from this tool", cmdCtx.Config.KeyStore.Backend)
	}
	loc := authz.KeyLocation{Bucket: opts.Bucket, Key: opts.Key}
	if err := w.Put(ctx, loc, pem); err != nil {
		return fmt.Errorf("store key: %w", err)
	}

	cmdCtx.Logger.InfoContext(ctx, "signing key stored", "backend", cmdCtx.Config.KeyStore.Backend, "location", loc.String())
	return nil
}

func runVerifyKey(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	store, closeFn, err := bootstrap.BuildKeyStore(ctx, bootstrap.KeyStoreDeps{
		Config: cmdCtx.Config.KeyStore,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			cmdCtx.Logger.Warn("key store close failed", "error", cerr)
		}
	}()

	cf := cmdCtx.Config.CloudFront
	return verifyKey(ctx, cmdCtx.Out, store, cf)
}

func verifyKey(ctx context.Context, out io.Writer, store ports.KeyStore, cf config.CloudFrontConfig) error {
	loc := authz.KeyLocation{Bucket: cf.KeyBucket, Key: cf.KeyObject}
	key, err := store.GetKey(ctx, loc)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", loc, err)
	}
	priv, err := cloudfront.ParsePrivateKey(key)
	if err != nil {
		return err
	}

	policy := authz.CookiePolicy{Domain: cf.CookieDomain, KeyID: cf.KeyID, ValidityDays: cf.CookieValidityDays}
	now := time.Now()
	cookies, err := cloudfront.NewSigner().Sign(ports.SignInput{
		Resource:  policy.Resource(),
		KeyID:     policy.KeyID,
		Key:       key,
		ExpiresAt: policy.ExpiresAt(now),
	})
	if err != nil {
		return fmt.Errorf("test signature: %w", err)
	}

	return writef(out, "key %s ok: rsa-%d, key pair %s, %d cookies for %s until %s\n",
		loc, priv.N.BitLen(), cf.KeyID, len(cookies), policy.Resource(),
		policy.ExpiresAt(now).UTC().Format(time.RFC3339))
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for migrations to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}
	if cmdCtx.Config.KeyStore.Backend != config.KeyStorePostgres {
		return fmt.Errorf("migrate only applies to the postgres backend (KEYSTORE_BACKEND=%s)", cmdCtx.Config.KeyStore.Backend)
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.KeyStore.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
