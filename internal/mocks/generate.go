// Package mocks provides gomock-generated mocks for the authorizer ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	keys := mocks.NewMockKeyStore(ctrl)
//	keys.EXPECT().GetKey(gomock.Any(), gomock.Any()).Return(pem, nil)
package mocks

// Generate mock for KeyStore interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=key_store_mock.go github.com/target/mmk-cdn-authorizer/internal/ports KeyStore
