package s3

// Package s3 fetches signing keys from S3 objects.

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

const maxKeyBytes = 1 << 20

var _ ports.KeyStore = (*KeyStore)(nil)

// GetObjectAPI is the slice of the S3 client the key store needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// KeyStore reads the private key from s3://<bucket>/<key>.
type KeyStore struct {
	client GetObjectAPI
}

// NewKeyStore wraps an S3 client.
func NewKeyStore(client GetObjectAPI) *KeyStore {
	return &KeyStore{client: client}
}

func (s *KeyStore) GetKey(ctx context.Context, loc authz.KeyLocation) (authz.SigningKey, error) {
	if loc.Bucket == "" || loc.Key == "" {
		return nil, ports.ErrKeyNotFound
	}

	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fmt.Errorf("%w: s3://%s", ports.ErrKeyNotFound, loc)
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxKeyBytes))
	if err != nil {
		return nil, fmt.Errorf("read s3 object: %w", err)
	}
	return authz.SigningKey(data), nil
}
