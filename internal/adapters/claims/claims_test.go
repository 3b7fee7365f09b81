package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractor_InvalidExpression(t *testing.T) {
	_, err := NewExtractor("email[", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile email expression")
}

func TestExtractor_Claim(t *testing.T) {
	ex, err := NewExtractor("", false)
	require.NoError(t, err)

	claim, err := ex.Claim(map[string]any{
		"email":          " jane@acme.com ",
		"email_verified": "true",
		"sub":            "1234",
		"iss":            "https://accounts.google.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.com", claim.Email)
	assert.Equal(t, "1234", claim.Subject)
	assert.Equal(t, "https://accounts.google.com", claim.Issuer)
	require.NotNil(t, claim.EmailVerified)
	assert.True(t, *claim.EmailVerified)
}

func TestExtractor_NestedExpression(t *testing.T) {
	ex, err := NewExtractor("profile.emails[0]", false)
	require.NoError(t, err)

	claim, err := ex.Claim(map[string]any{
		"profile": map[string]any{"emails": []any{"bob@ocelot.io", "other@x.io"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "bob@ocelot.io", claim.Email)
	assert.Nil(t, claim.EmailVerified)
}

func TestExtractor_MissingEmail(t *testing.T) {
	ex, err := NewExtractor("email", false)
	require.NoError(t, err)

	for _, doc := range []map[string]any{
		{},
		{"email": ""},
		{"email": 42.0},
	} {
		_, err := ex.Claim(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "yielded no email")
	}
}

func TestExtractor_RequireVerified(t *testing.T) {
	ex, err := NewExtractor("email", true)
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{name: "bool true", value: true},
		{name: "string true", value: "true"},
		{name: "bool false", value: false, wantErr: true},
		{name: "string false", value: "false", wantErr: true},
		{name: "garbage", value: "maybe", wantErr: true},
		{name: "absent", value: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{"email": "jane@acme.com"}
			if tt.value != nil {
				doc["email_verified"] = tt.value
			}
			_, err := ex.Claim(doc)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrEmailUnverified)
				return
			}
			require.NoError(t, err)
		})
	}
}
