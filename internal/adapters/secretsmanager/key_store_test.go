package secretsmanager

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sm "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

type fakeSecrets struct {
	out  *sm.GetSecretValueOutput
	err  error
	seen []string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *sm.GetSecretValueInput, _ ...func(*sm.Options)) (*sm.GetSecretValueOutput, error) {
	f.seen = append(f.seen, aws.ToString(in.SecretId))
	return f.out, f.err
}

func TestSecretID(t *testing.T) {
	assert.Equal(t, "keys/cf-pk", SecretID(authz.KeyLocation{Bucket: "keys", Key: "cf-pk"}))
	assert.Equal(t, "cf-pk", SecretID(authz.KeyLocation{Key: "cf-pk"}))
	arn := "arn:aws:secretsmanager:us-east-1:123456789012:secret:cf-pk-AbCdEf"
	assert.Equal(t, arn, SecretID(authz.KeyLocation{Bucket: "ignored", Key: arn}))
}

func TestKeyStore_SecretString(t *testing.T) {
	fake := &fakeSecrets{out: &sm.GetSecretValueOutput{SecretString: aws.String("  pem\n")}}
	store := NewKeyStore(fake)

	got, err := store.GetKey(context.Background(), authz.KeyLocation{Bucket: "keys", Key: "cf-pk"})
	require.NoError(t, err)
	assert.Equal(t, authz.SigningKey("pem"), got)
	assert.Equal(t, []string{"keys/cf-pk"}, fake.seen)
}

func TestKeyStore_SecretBinary(t *testing.T) {
	store := NewKeyStore(&fakeSecrets{out: &sm.GetSecretValueOutput{SecretBinary: []byte("bin")}})

	got, err := store.GetKey(context.Background(), authz.KeyLocation{Key: "cf-pk"})
	require.NoError(t, err)
	assert.Equal(t, authz.SigningKey("bin"), got)
}

func TestKeyStore_Failures(t *testing.T) {
	tests := []struct {
		name     string
		fake     *fakeSecrets
		notFound bool
	}{
		{name: "missing secret", fake: &fakeSecrets{err: &types.ResourceNotFoundException{}}, notFound: true},
		{name: "empty secret", fake: &fakeSecrets{out: &sm.GetSecretValueOutput{}}, notFound: true},
		{name: "throttled", fake: &fakeSecrets{err: errors.New("ThrottlingException")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeyStore(tt.fake).GetKey(context.Background(), authz.KeyLocation{Key: "cf-pk"})
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ports.ErrKeyNotFound))
		})
	}
}
