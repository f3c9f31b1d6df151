package identity

import "net/http"

// Header names set by the trusted gateway in front of the service.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Resolver identifies the caller of an HTTP request.
type Resolver interface {
	Resolve(r *http.Request) (Principal, error)
}

// HeaderResolver trusts identity headers injected by an upstream gateway.
type HeaderResolver struct{}

func NewHeaderResolver() HeaderResolver { return HeaderResolver{} }

func (HeaderResolver) Resolve(r *http.Request) (Principal, error) {
	id := r.Header.Get(HeaderUserID)
	if id == "" {
		return Principal{}, ErrUnauthenticated
	}
	return NewPrincipal(id, r.Header.Get(HeaderUserRole))
}
