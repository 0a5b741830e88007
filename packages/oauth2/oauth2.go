// Package oauth2 implements the OAuth2 authorization-code flow on top of the
// conduit request pipeline: authorization URL construction with CSRF state,
// code exchange, token refresh, and user-info retrieval. All network calls
// are routed through the bound connector, so connector defaults, mocking and
// middleware apply to the flow's requests as well.
package oauth2

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/conduit/packages/auth"
	"github.com/abdul-hamid-achik/conduit/packages/client"
)

var (
	// ErrInvalidState is returned when the callback state does not match the
	// expected state. The check runs before any network call.
	ErrInvalidState = errors.New("Invalid state.")

	// ErrNoRefreshToken is returned when a refresh is attempted with an
	// authenticator that does not contain a refresh token.
	ErrNoRefreshToken = errors.New("authenticator does not contain a refresh token")
)

// RequestModifier adjusts an OAuth request before it is dispatched.
type RequestModifier func(req *client.Request)

// TokenFactory builds the authenticator from a parsed token payload.
// Non-standard providers substitute their own.
type TokenFactory func(payload gjson.Result) (*auth.AccessToken, error)

// Config holds per-connector OAuth2 settings. Endpoints are resolved against
// the connector's base URL unless absolute.
type Config struct {
	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	RedirectURI  string   `env:"OAUTH_REDIRECT_URI"`
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:","`

	AuthorizeEndpoint string `env:"OAUTH_AUTHORIZE_ENDPOINT" envDefault:"authorize"`
	TokenEndpoint     string `env:"OAUTH_TOKEN_ENDPOINT" envDefault:"token"`
	UserEndpoint      string `env:"OAUTH_USER_ENDPOINT" envDefault:"user"`

	// ScopeSeparator joins scopes in the authorization URL. Defaults to a
	// space.
	ScopeSeparator string

	// RequestModifier, when set, runs against every token-exchange, refresh
	// and user-info request before dispatch.
	RequestModifier RequestModifier

	// TokenFactory overrides DefaultTokenFactory.
	TokenFactory TokenFactory

	// Request factories let providers with non-standard request shapes
	// replace the defaults without touching the flow logic.
	TokenRequestFactory   func(cfg *Config, code string) *client.Request
	RefreshRequestFactory func(cfg *Config, refreshToken string) *client.Request
	UserRequestFactory    func(cfg *Config) *client.Request
}

// Flow drives the authorization-code grant against one connector.
//
// The CSRF state is a single slot: a new AuthorizationURL call overwrites the
// previous value, so concurrent flows on the same connector race (last write
// wins). Use separate connectors for concurrent authorization flows.
type Flow struct {
	conn *client.Connector
	cfg  *Config

	mu    sync.Mutex
	state string
}

// NewFlow binds an OAuth2 configuration to a connector. cfg is copied;
// missing endpoints and the scope separator get their defaults.
func NewFlow(conn *client.Connector, cfg *Config) *Flow {
	c := *cfg
	if c.ScopeSeparator == "" {
		c.ScopeSeparator = " "
	}
	if c.AuthorizeEndpoint == "" {
		c.AuthorizeEndpoint = "authorize"
	}
	if c.TokenEndpoint == "" {
		c.TokenEndpoint = "token"
	}
	if c.UserEndpoint == "" {
		c.UserEndpoint = "user"
	}
	if c.TokenRequestFactory == nil {
		c.TokenRequestFactory = defaultTokenRequest
	}
	if c.RefreshRequestFactory == nil {
		c.RefreshRequestFactory = defaultRefreshRequest
	}
	if c.UserRequestFactory == nil {
		c.UserRequestFactory = defaultUserRequest
	}
	return &Flow{conn: conn, cfg: &c}
}

// AuthorizationURL builds the authorization endpoint URL. Default scopes are
// prepended to the caller's scopes. When state is empty a cryptographically
// random value is generated. The resolved state is stored on the flow and
// retrievable via State until the next call overwrites it.
func (f *Flow) AuthorizationURL(scopes []string, state string) string {
	if state == "" {
		state = uuid.NewString()
	}
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()

	all := make([]string, 0, len(f.cfg.Scopes)+len(scopes))
	all = append(all, f.cfg.Scopes...)
	all = append(all, scopes...)

	endpoint := client.JoinURL(f.conn.BaseURL(), f.cfg.AuthorizeEndpoint)

	var q strings.Builder
	writeParam := func(key, value string) {
		if q.Len() > 0 {
			q.WriteByte('&')
		}
		q.WriteString(key)
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(value))
	}
	writeParam("response_type", "code")
	writeParam("scope", strings.Join(all, f.cfg.ScopeSeparator))
	writeParam("client_id", f.cfg.ClientID)
	writeParam("redirect_uri", f.cfg.RedirectURI)
	writeParam("state", state)

	return endpoint + "?" + q.String()
}

// State returns the most recently generated or supplied state value.
func (f *Flow) State() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// AccessToken exchanges an authorization code for an access token. When
// expectedState is non-empty it is compared against state in constant time
// before any network call; a mismatch fails with ErrInvalidState. The raw
// response is returned alongside the parsed token.
func (f *Flow) AccessToken(ctx context.Context, code, state, expectedState string) (*auth.AccessToken, *client.Response, error) {
	if expectedState != "" && subtle.ConstantTimeCompare([]byte(expectedState), []byte(state)) != 1 {
		return nil, nil, ErrInvalidState
	}

	req := f.cfg.TokenRequestFactory(f.cfg, code)
	f.applyModifiers(req)

	resp, err := f.conn.Send(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	tok, err := f.parseToken(resp)
	if err != nil {
		return nil, resp, err
	}
	return tok, resp, nil
}

// RefreshToken exchanges a refresh token for a fresh access token. The
// refresh-token precondition is checked before any network call.
func (f *Flow) RefreshToken(ctx context.Context, tok *auth.AccessToken, mods ...RequestModifier) (*auth.AccessToken, *client.Response, error) {
	if tok == nil || !tok.Refreshable() {
		return nil, nil, ErrNoRefreshToken
	}

	req := f.cfg.RefreshRequestFactory(f.cfg, tok.RefreshToken)
	f.applyModifiers(req, mods...)

	resp, err := f.conn.Send(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	refreshed, err := f.parseToken(resp)
	if err != nil {
		return nil, resp, err
	}
	return refreshed, resp, nil
}

// User fetches the provider's user-info endpoint authenticated with tok. The
// response is returned unparsed; the caller maps it to a domain user.
func (f *Flow) User(ctx context.Context, tok *auth.AccessToken, mods ...RequestModifier) (*client.Response, error) {
	req := f.cfg.UserRequestFactory(f.cfg)
	req.SetAuthenticator(tok)
	f.applyModifiers(req, mods...)

	return f.conn.Send(ctx, req)
}

// applyModifiers runs the global modifier, then any call-specific ones, each
// exactly once.
func (f *Flow) applyModifiers(req *client.Request, mods ...RequestModifier) {
	if f.cfg.RequestModifier != nil {
		f.cfg.RequestModifier(req)
	}
	for _, mod := range mods {
		if mod != nil {
			mod(req)
		}
	}
}

func (f *Flow) parseToken(resp *client.Response) (*auth.AccessToken, error) {
	if f.cfg.TokenFactory != nil {
		return f.cfg.TokenFactory(resp.JSON())
	}
	return DefaultTokenFactory(resp.JSON())
}

// DefaultTokenFactory parses a standard token-endpoint payload. expires_in
// is converted to an absolute expiry at parse time.
func DefaultTokenFactory(payload gjson.Result) (*auth.AccessToken, error) {
	access := payload.Get("access_token").String()
	if access == "" {
		return nil, fmt.Errorf("token response missing access_token: %s", payload.Raw)
	}
	return auth.NewAccessToken(
		access,
		payload.Get("refresh_token").String(),
		int(payload.Get("expires_in").Int()),
	), nil
}

func defaultTokenRequest(cfg *Config, code string) *client.Request {
	return client.NewRequest("POST", cfg.TokenEndpoint).
		SetFormField("grant_type", "authorization_code").
		SetFormField("code", code).
		SetFormField("redirect_uri", cfg.RedirectURI).
		SetFormField("client_id", cfg.ClientID).
		SetFormField("client_secret", cfg.ClientSecret)
}

func defaultRefreshRequest(cfg *Config, refreshToken string) *client.Request {
	return client.NewRequest("POST", cfg.TokenEndpoint).
		SetFormField("grant_type", "refresh_token").
		SetFormField("refresh_token", refreshToken).
		SetFormField("client_id", cfg.ClientID).
		SetFormField("client_secret", cfg.ClientSecret)
}

func defaultUserRequest(cfg *Config) *client.Request {
	return client.NewRequest("GET", cfg.UserEndpoint)
}
