package authz

// Package authz contains simple hand-written test doubles for the authorizer ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"

	domainauthz "github.com/target/mmk-cdn-authorizer/internal/domain/authz"
	"github.com/target/mmk-cdn-authorizer/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.ClaimResolver = (*MockClaimResolver)(nil)
	_ ports.KeyStore      = (*MemoryKeyStore)(nil)
	_ ports.CookieSigner  = (*MockCookieSigner)(nil)
)

// MockClaimResolver returns claims from a token → email table unless ResolveFunc is set.
type MockClaimResolver struct {
	ResolveFunc func(ctx context.Context, assertion string) (domainauthz.IdentityClaim, error)
	Emails      map[string]string

	mu    sync.Mutex
	calls []string
}

// NewMockClaimResolver creates a resolver that knows the given token → email pairs.
func NewMockClaimResolver(emails map[string]string) *MockClaimResolver {
	return &MockClaimResolver{Emails: emails}
}

func (m *MockClaimResolver) Resolve(ctx context.Context, assertion string) (domainauthz.IdentityClaim, error) {
	m.mu.Lock()
	m.calls = append(m.calls, assertion)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, assertion)
	}
	email, ok := m.Emails[assertion]
	if !ok {
		return domainauthz.IdentityClaim{}, ports.ErrInvalidAssertion
	}
	return domainauthz.IdentityClaim{Email: email, Subject: "sub-" + assertion}, nil
}

// Calls returns the assertions seen so far.
func (m *MockClaimResolver) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MemoryKeyStore serves keys from a map and counts lookups.
type MemoryKeyStore struct {
	mu    sync.Mutex
	keys  map[domainauthz.KeyLocation]domainauthz.SigningKey
	calls int
	Err   error
}

// NewMemoryKeyStore creates an empty MemoryKeyStore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[domainauthz.KeyLocation]domainauthz.SigningKey)}
}

// Put stores key at loc.
func (s *MemoryKeyStore) Put(loc domainauthz.KeyLocation, key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[loc] = append(domainauthz.SigningKey(nil), key...)
}

func (s *MemoryKeyStore) GetKey(_ context.Context, loc domainauthz.KeyLocation) (domainauthz.SigningKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	key, ok := s.keys[loc]
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	return append(domainauthz.SigningKey(nil), key...), nil
}

// Calls returns the number of GetKey invocations.
func (s *MemoryKeyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ErrMalformedKey is returned by MockCookieSigner for keys it was told to reject.
var ErrMalformedKey = errors.New("malformed key")

// MockCookieSigner records sign requests and returns deterministic cookie values.
type MockCookieSigner struct {
	SignFunc func(in ports.SignInput) (map[string]string, error)

	mu    sync.Mutex
	calls []ports.SignInput
}

func (m *MockCookieSigner) Sign(in ports.SignInput) (map[string]string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	m.mu.Unlock()

	if m.SignFunc != nil {
		return m.SignFunc(in)
	}
	if string(in.Key) == "malformed" {
		return nil, ErrMalformedKey
	}
	return map[string]string{
		domainauthz.CookiePolicyName:    "policy:" + in.Resource,
		domainauthz.CookieSignatureName: "sig",
		domainauthz.CookieKeyPairIDName: in.KeyID,
	}, nil
}

// Calls returns the recorded sign inputs.
func (m *MockCookieSigner) Calls() []ports.SignInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.SignInput(nil), m.calls...)
}
