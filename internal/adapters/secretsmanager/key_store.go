package secretsmanager

// Package secretsmanager fetches signing keys from AWS Secrets Manager.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	sm "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

var _ ports.KeyStore = (*KeyStore)(nil)

// GetSecretValueAPI is the slice of the Secrets Manager client the key store needs.
type GetSecretValueAPI interface {
	GetSecretValue(ctx context.Context, in *sm.GetSecretValueInput, optFns ...func(*sm.Options)) (*sm.GetSecretValueOutput, error)
}

// KeyStore maps a KeyLocation onto a secret id: an ARN key is used as-is,
// otherwise the id is "<bucket>/<key>" (or just key when bucket is empty).
type KeyStore struct {
	client GetSecretValueAPI
}

// NewKeyStore wraps a Secrets Manager client.
func NewKeyStore(client GetSecretValueAPI) *KeyStore {
	return &KeyStore{client: client}
}

// SecretID returns the secret id looked up for loc.
func SecretID(loc authz.KeyLocation) string {
	if strings.HasPrefix(loc.Key, "arn:") || loc.Bucket == "" {
		return loc.Key
	}
	return loc.Bucket + "/" + loc.Key
}

func (s *KeyStore) GetKey(ctx context.Context, loc authz.KeyLocation) (authz.SigningKey, error) {
	id := SecretID(loc)
	if id == "" {
		return nil, ports.ErrKeyNotFound
	}

	out, err := s.client.GetSecretValue(ctx, &sm.GetSecretValueInput{SecretId: aws.String(id)})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: secret %s", ports.ErrKeyNotFound, id)
		}
		return nil, fmt.Errorf("get secret value: %w", err)
	}

	if out.SecretString != nil {
		return authz.SigningKey(strings.TrimSpace(aws.ToString(out.SecretString))), nil
	}
	if len(out.SecretBinary) > 0 {
		return authz.SigningKey(out.SecretBinary), nil
	}
	return nil, fmt.Errorf("%w: secret %s has no value", ports.ErrKeyNotFound, id)
}
