package auth

import (
	"errors"
	"net/http"
	"strings"

	"mercator-hq/wsrelay/pkg/config"
)

// Well-known token locations.
const (
	HeaderToken = "X-Token"
	QueryToken  = "token"
)

var (
	// ErrMissingToken is returned when no source carries a token.
	ErrMissingToken = errors.New("no token supplied")

	// ErrInvalidToken is returned when the token matches no user.
	ErrInvalidToken = errors.New("invalid token")
)

// SourceType is where a token is read from.
type SourceType string

// Source types.
const (
	SourceHeader SourceType = "header"
	SourceQuery  SourceType = "query"
)

// Source defines one place to extract a token from.
type Source struct {
	Type   SourceType
	Name   string // Header name or query parameter
	Scheme string // Required value prefix such as "Bearer" (headers only)
}

// DefaultSources reads the X-Token header, then the token query parameter.
var DefaultSources = []Source{
	{Type: SourceHeader, Name: HeaderToken},
	{Type: SourceQuery, Name: QueryToken},
}

// ExtractToken returns the first non-empty token found in sources.
func ExtractToken(r *http.Request, sources []Source) (string, error) {
	for _, source := range sources {
		switch source.Type {
		case SourceHeader:
			value := r.Header.Get(source.Name)
			if value == "" {
				continue
			}
			if source.Scheme == "" {
				return value, nil
			}
			if rest, ok := strings.CutPrefix(value, source.Scheme+" "); ok && rest != "" {
				return rest, nil
			}

		case SourceQuery:
			if value := r.URL.Query().Get(source.Name); value != "" {
				return value, nil
			}
		}
	}

	return "", ErrMissingToken
}

// Authenticator resolves tokens against the active configuration.
type Authenticator struct {
	store   *config.Store
	sources []Source
}

// NewAuthenticator creates an Authenticator reading tokens from sources, or
// from DefaultSources when none are given.
func NewAuthenticator(store *config.Store, sources ...Source) *Authenticator {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	return &Authenticator{store: store, sources: sources}
}

// Lookup returns the user holding token in the current snapshot.
func (a *Authenticator) Lookup(token string) (config.User, error) {
	if token == "" {
		return config.User{}, ErrMissingToken
	}
	user, ok := a.store.Current().LookupToken(token)
	if !ok {
		return config.User{}, ErrInvalidToken
	}
	return user, nil
}

// Authenticate extracts the request token and looks it up.
func (a *Authenticator) Authenticate(r *http.Request) (config.User, error) {
	token, err := ExtractToken(r, a.sources)
	if err != nil {
		return config.User{}, err
	}
	return a.Lookup(token)
}
