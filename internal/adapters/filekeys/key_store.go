// Package filekeys reads signing keys from a local directory tree laid out as
// <dir>/<bucket>/<key>. Intended for local development.
package filekeys

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

var _ ports.KeyStore = (*KeyStore)(nil)

// ErrOutsideRoot is returned when a location resolves outside the root directory.
var ErrOutsideRoot = errors.New("key location escapes root directory")

// KeyStore serves key material from disk.
type KeyStore struct {
	root string
}

// NewKeyStore creates a new KeyStore rooted at dir.
func NewKeyStore(dir string) (*KeyStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("key directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve key directory: %w", err)
	}
	return &KeyStore{root: abs}, nil
}

// Path returns the file a location maps to.
func (s *KeyStore) Path(loc authz.KeyLocation) (string, error) {
	p := filepath.Join(s.root, loc.Bucket, filepath.FromSlash(loc.Key))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, loc)
	}
	return p, nil
}

func (s *KeyStore) GetKey(ctx context.Context, loc authz.KeyLocation) (authz.SigningKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc.Key == "" {
		return nil, fmt.Errorf("%w: empty key", ports.ErrKeyNotFound)
	}
	p, err := s.Path(loc)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrKeyNotFound, loc)
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return authz.SigningKey(data), nil
}
