// Package auth provides the credential-injection strategies applied to a
// pending request: bearer tokens, basic auth, header and query-param API
// keys, and OAuth2 access tokens.
package auth

import (
	"encoding/base64"

	"github.com/abdul-hamid-achik/conduit/packages/client"
)

// TokenAuthenticator injects a token into the Authorization header. The
// prefix defaults to "Bearer".
type TokenAuthenticator struct {
	Token  string
	Prefix string
}

// NewTokenAuthenticator creates a bearer-token authenticator.
func NewTokenAuthenticator(token string) *TokenAuthenticator {
	return &TokenAuthenticator{Token: token, Prefix: "Bearer"}
}

func (a *TokenAuthenticator) Apply(pr *client.PendingRequest) {
	prefix := a.Prefix
	if prefix == "" {
		prefix = "Bearer"
	}
	pr.Headers().Set("Authorization", prefix+" "+a.Token)
}

// BasicAuthenticator injects HTTP basic credentials.
type BasicAuthenticator struct {
	Username string
	Password string
}

func NewBasicAuthenticator(username, password string) *BasicAuthenticator {
	return &BasicAuthenticator{Username: username, Password: password}
}

func (a *BasicAuthenticator) Apply(pr *client.PendingRequest) {
	encoded := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	pr.Headers().Set("Authorization", "Basic "+encoded)
}

// HeaderAuthenticator injects an API key into an arbitrary header.
type HeaderAuthenticator struct {
	Key   string
	Value string
}

func NewHeaderAuthenticator(key, value string) *HeaderAuthenticator {
	return &HeaderAuthenticator{Key: key, Value: value}
}

func (a *HeaderAuthenticator) Apply(pr *client.PendingRequest) {
	pr.Headers().Set(a.Key, a.Value)
}

// QueryAuthenticator injects an API key into a query parameter.
type QueryAuthenticator struct {
	Key   string
	Value string
}

func NewQueryAuthenticator(key, value string) *QueryAuthenticator {
	return &QueryAuthenticator{Key: key, Value: value}
}

func (a *QueryAuthenticator) Apply(pr *client.PendingRequest) {
	pr.Query().Set(a.Key, a.Value)
}
