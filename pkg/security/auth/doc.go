/*
Package auth resolves relay users from pre-shared tokens.

Tokens are looked up in the active configuration snapshot, so a reload that
adds or removes a user takes effect for the next request without touching
sessions that are already authenticated.

# Token Sources

HTTP requests carry the token in one of several places. Sources are tried in
order and the first non-empty value wins:

	sources := []auth.Source{
		{Type: auth.SourceHeader, Name: "X-Token"},
		{Type: auth.SourceQuery, Name: "token"},
	}

DefaultSources is that list. A header source may name a Scheme such as
"Bearer", in which case only values with that prefix are accepted.

# Authenticating

	a := auth.NewAuthenticator(store)

	// Header mode and REST requests
	user, err := a.Authenticate(r)

	// In-band auth messages
	user, err := a.Lookup(msg.Token)

Both return ErrMissingToken or ErrInvalidToken on failure. Neither error
carries the token itself.
*/
package auth
