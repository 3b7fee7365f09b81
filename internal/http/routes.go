package httpx

import "net/http"

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Authorizer   Authorizer
	CookieDomain string
	MaxBodyBytes int64
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authorize := &AuthorizeHandlers{
		Svc:          services.Authorizer,
		CookieDomain: services.CookieDomain,
		MaxBodyBytes: services.MaxBodyBytes,
	}

	mux.HandleFunc("POST /authorize", authorize.Authorize)
	mux.HandleFunc("GET /healthz", healthHandler)

	return mux
}
