// Package postgres stores signing keys in a Postgres table, encrypted at rest.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS signing_keys (
	bucket      TEXT        NOT NULL,
	object_key  TEXT        NOT NULL,
	pem         TEXT        NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (bucket, object_key)
)`

var _ ports.KeyStore = (*KeyStore)(nil)

// ErrStoreUnavailable marks connection-class failures.
var ErrStoreUnavailable = errors.New("key store unavailable")

// KeyStore reads PEM key material from signing_keys.
type KeyStore struct {
	DB  *sql.DB
	Enc Encryptor
}

// NewKeyStore creates a new KeyStore.
func NewKeyStore(db *sql.DB, enc Encryptor) *KeyStore {
	if enc == nil {
		enc = PlainEncryptor{}
	}
	return &KeyStore{DB: db, Enc: enc}
}

// Migrate creates the signing_keys table if needed.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create signing_keys: %w", err)
	}
	return nil
}

func (s *KeyStore) GetKey(ctx context.Context, loc authz.KeyLocation) (authz.SigningKey, error) {
	var sealed string
	err := withPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT pem FROM signing_keys WHERE bucket = $1 AND object_key = $2`,
			loc.Bucket, loc.Key,
		).Scan(&sealed)
	})
	if err != nil {
		return nil, mapReadErr(err, loc)
	}

	pem, err := s.Enc.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt signing key %s: %w", loc, err)
	}
	return authz.SigningKey(pem), nil
}

// Put inserts or replaces the key material at loc.
func (s *KeyStore) Put(ctx context.Context, loc authz.KeyLocation, pem []byte) error {
	if loc.Bucket == "" || loc.Key == "" {
		return errors.New("bucket and key are required")
	}
	sealed, err := s.Enc.Encrypt(pem)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	return withPgxConn(ctx, s.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO signing_keys (bucket, object_key, pem)
			VALUES ($1, $2, $3)
			ON CONFLICT (bucket, object_key)
			DO UPDATE SET pem = EXCLUDED.pem, updated_at = now()`,
			loc.Bucket, loc.Key, sealed)
		return execErr
	})
}

func mapReadErr(err error, loc authz.KeyLocation) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ports.ErrKeyNotFound, loc)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UndefinedTable:
			return fmt.Errorf("%w: signing_keys table is not provisioned", ports.ErrKeyNotFound)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}
	return fmt.Errorf("query signing key: %w", err)
}
