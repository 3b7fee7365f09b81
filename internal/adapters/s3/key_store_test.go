package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

type fakeS3 struct {
	objects map[string]string
	err     error
	seen    []*awss3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.seen = append(f.seen, in)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestKeyStore_GetKey(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"keys/cf/pk.pem": "pem"}}
	store := NewKeyStore(fake)

	got, err := store.GetKey(context.Background(), authz.KeyLocation{Bucket: "keys", Key: "cf/pk.pem"})
	require.NoError(t, err)
	assert.Equal(t, authz.SigningKey("pem"), got)

	require.Len(t, fake.seen, 1)
	assert.Equal(t, "keys", aws.ToString(fake.seen[0].Bucket))
	assert.Equal(t, "cf/pk.pem", aws.ToString(fake.seen[0].Key))
}

func TestKeyStore_Missing(t *testing.T) {
	store := NewKeyStore(&fakeS3{})

	_, err := store.GetKey(context.Background(), authz.KeyLocation{Bucket: "keys", Key: "absent.pem"})
	require.ErrorIs(t, err, ports.ErrKeyNotFound)
	assert.Contains(t, err.Error(), "s3://keys/absent.pem")
}

func TestKeyStore_MissingBucket(t *testing.T) {
	store := NewKeyStore(&fakeS3{err: &types.NoSuchBucket{}})

	_, err := store.GetKey(context.Background(), authz.KeyLocation{Bucket: "gone", Key: "pk.pem"})
	assert.ErrorIs(t, err, ports.ErrKeyNotFound)
}

func TestKeyStore_Unreachable(t *testing.T) {
	store := NewKeyStore(&fakeS3{err: errors.New("dial tcp: i/o timeout")})

	_, err := store.GetKey(context.Background(), authz.KeyLocation{Bucket: "keys", Key: "pk.pem"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrKeyNotFound)
	assert.Contains(t, err.Error(), "s3 get object")
}

func TestKeyStore_EmptyLocation(t *testing.T) {
	fake := &fakeS3{}
	store := NewKeyStore(fake)

	_, err := store.GetKey(context.Background(), authz.KeyLocation{Key: "pk.pem"})
	assert.ErrorIs(t, err, ports.ErrKeyNotFound)
	assert.Empty(t, fake.seen)
}
