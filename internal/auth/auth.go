package auth

import (
	"net/http"
	"strings"
)

// UserIDHeader carries the authenticated user id set by the upstream session proxy
const UserIDHeader = "X-User-Id"

// Provider resolves the authenticated user of a request. An empty id means
// the request is anonymous.
type Provider interface {
	CurrentUserID(r *http.Request) string
}

// HeaderProvider trusts a header populated by the auth gateway in front of
// the service
type HeaderProvider struct {
	Header string
}

// NewHeaderProvider reads UserIDHeader
func NewHeaderProvider() HeaderProvider {
	return HeaderProvider{Header: UserIDHeader}
}

// CurrentUserID returns the trimmed header value
func (p HeaderProvider) CurrentUserID(r *http.Request) string {
	header := p.Header
	if header == "" {
		header = UserIDHeader
	}
	return strings.TrimSpace(r.Header.Get(header))
}
