package oauth2

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/conduit/packages/auth"
	"github.com/abdul-hamid-achik/conduit/packages/client"
	"github.com/abdul-hamid-achik/conduit/packages/mock"
)

const tokenPayload = `{"access_token":"access","refresh_token":"refresh","expires_in":3600}`

func testFlow(t *testing.T, cfg *Config) (*Flow, *mock.Client) {
	t.Helper()
	m := mock.NewClient()
	m.On("POST", "/token").ReplyJSON(200, tokenPayload)
	m.On("GET", "/user").ReplyJSON(200, `{"name":"ada"}`)

	conn := client.NewConnector("https://provider.example.com", client.WithMockClient(m))
	return NewFlow(conn, cfg), m
}

func TestAuthorizationURL_ScopesAndState(t *testing.T) {
	flow, _ := testFlow(t, &Config{
		ClientID:    "client-id",
		RedirectURI: "https://app.example.com/callback",
		Scopes:      []string{"c"},
	})

	raw := flow.AuthorizationURL([]string{"a", "b"}, "S")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://provider.example.com/authorize", u.Scheme+"://"+u.Host+u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "c a b", q.Get("scope"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, "S", q.Get("state"))
	assert.Equal(t, "S", flow.State())
}

func TestAuthorizationURL_CustomScopeSeparator(t *testing.T) {
	flow, _ := testFlow(t, &Config{ScopeSeparator: ","})

	raw := flow.AuthorizationURL([]string{"a", "b"}, "S")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "a,b", u.Query().Get("scope"))
}

func TestAuthorizationURL_GeneratesState(t *testing.T) {
	flow, _ := testFlow(t, &Config{})

	first := flow.AuthorizationURL(nil, "")
	firstState := flow.State()
	assert.NotEmpty(t, firstState)

	u, err := url.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, firstState, u.Query().Get("state"))

	// A new call generates a fresh state and overwrites the slot.
	flow.AuthorizationURL(nil, "")
	assert.NotEmpty(t, flow.State())
	assert.NotEqual(t, firstState, flow.State())
}

func TestAccessToken_Exchange(t *testing.T) {
	flow, m := testFlow(t, &Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/callback",
	})

	tok, resp, err := flow.AccessToken(context.Background(), "the-code", "S", "S")
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, "access", tok.Token)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	require.Equal(t, 1, m.SentCount())
	body, err := m.Last().BodyBytes()
	require.NoError(t, err)
	assert.Equal(t,
		"grant_type=authorization_code&code=the-code&redirect_uri=https%3A%2F%2Fapp.example.com%2Fcallback&client_id=client-id&client_secret=client-secret",
		string(body))
}

func TestAccessToken_StateMismatchFailsBeforeDispatch(t *testing.T) {
	flow, m := testFlow(t, &Config{})

	_, _, err := flow.AccessToken(context.Background(), "code", "S", "X")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 0, m.SentCount())
}

func TestAccessToken_NoExpectedStateSkipsCheck(t *testing.T) {
	flow, _ := testFlow(t, &Config{})

	tok, _, err := flow.AccessToken(context.Background(), "code", "anything", "")
	require.NoError(t, err)
	assert.Equal(t, "access", tok.Token)
}

func TestAccessToken_MissingAccessTokenInPayload(t *testing.T) {
	m := mock.NewClient()
	m.On("POST", "/token").ReplyJSON(200, `{"error":"invalid_grant"}`)
	conn := client.NewConnector("https://provider.example.com", client.WithMockClient(m))
	flow := NewFlow(conn, &Config{})

	tok, resp, err := flow.AccessToken(context.Background(), "code", "", "")
	require.Error(t, err)
	assert.Nil(t, tok)
	// The raw response is still surfaced for inspection.
	require.NotNil(t, resp)
	assert.Equal(t, "invalid_grant", resp.Get("error").String())
}

func TestRefreshToken(t *testing.T) {
	flow, m := testFlow(t, &Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})

	tok, _, err := flow.RefreshToken(context.Background(), auth.NewAccessToken("old", "the-refresh", 0))
	require.NoError(t, err)
	assert.Equal(t, "access", tok.Token)

	body, err := m.Last().BodyBytes()
	require.NoError(t, err)
	assert.Equal(t,
		"grant_type=refresh_token&refresh_token=the-refresh&client_id=client-id&client_secret=client-secret",
		string(body))
}

func TestRefreshToken_NoRefreshTokenFailsBeforeDispatch(t *testing.T) {
	flow, m := testFlow(t, &Config{})

	_, _, err := flow.RefreshToken(context.Background(), auth.NewAccessToken("old", "", 0))
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	_, _, err = flow.RefreshToken(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	assert.Equal(t, 0, m.SentCount())
}

func TestUser_BearerAuthentication(t *testing.T) {
	flow, m := testFlow(t, &Config{})

	resp, err := flow.User(context.Background(), auth.NewAccessToken("access", "", 0))
	require.NoError(t, err)
	assert.Equal(t, "ada", resp.Get("name").String())

	pr := m.Last()
	assert.Equal(t, "GET", pr.Method())
	assert.Equal(t, "Bearer access", pr.Headers().GetString("Authorization"))
}

func TestRequestModifier_OncePerDispatchInCallOrder(t *testing.T) {
	var seen []string
	flow, m := testFlow(t, &Config{
		RequestModifier: func(req *client.Request) {
			seen = append(seen, req.Method()+" "+req.Path())
		},
	})

	tok, _, err := flow.AccessToken(context.Background(), "code", "S", "S")
	require.NoError(t, err)
	_, _, err = flow.RefreshToken(context.Background(), tok)
	require.NoError(t, err)
	_, err = flow.User(context.Background(), tok)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST token", "POST token", "GET user"}, seen)
	assert.Equal(t, 3, m.SentCount())
}

func TestCallSpecificModifierRunsAfterGlobal(t *testing.T) {
	var order []string
	flow, m := testFlow(t, &Config{
		RequestModifier: func(req *client.Request) {
			order = append(order, "global")
		},
	})

	_, err := flow.User(context.Background(), auth.NewAccessToken("access", "", 0),
		func(req *client.Request) {
			order = append(order, "call")
			req.SetHeader("X-Extra", "1")
		})
	require.NoError(t, err)

	assert.Equal(t, []string{"global", "call"}, order)
	assert.Equal(t, "1", m.Last().Headers().GetString("X-Extra"))
}

func TestCustomTokenFactory(t *testing.T) {
	flow, _ := testFlow(t, &Config{
		TokenFactory: func(payload gjson.Result) (*auth.AccessToken, error) {
			return auth.NewAccessToken(payload.Get("access_token").String()+"-wrapped", "", 0), nil
		},
	})

	tok, _, err := flow.AccessToken(context.Background(), "code", "", "")
	require.NoError(t, err)
	assert.Equal(t, "access-wrapped", tok.Token)
}

func TestCustomRequestFactories(t *testing.T) {
	m := mock.NewClient()
	m.On("POST", "/v2/oauth/exchange").ReplyJSON(200, tokenPayload)
	m.On("GET", "/v2/profile").ReplyJSON(200, `{}`)

	conn := client.NewConnector("https://provider.example.com", client.WithMockClient(m))
	flow := NewFlow(conn, &Config{
		TokenRequestFactory: func(cfg *Config, code string) *client.Request {
			return client.NewRequest("POST", "/v2/oauth/exchange").
				SetFormField("code", code)
		},
		UserRequestFactory: func(cfg *Config) *client.Request {
			return client.NewRequest("GET", "/v2/profile")
		},
	})

	tok, _, err := flow.AccessToken(context.Background(), "code", "", "")
	require.NoError(t, err)

	_, err = flow.User(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, 2, m.SentCount())
}

func TestEndpointDefaults(t *testing.T) {
	flow := NewFlow(client.NewConnector("https://provider.example.com"), &Config{})

	assert.Equal(t, "authorize", flow.cfg.AuthorizeEndpoint)
	assert.Equal(t, "token", flow.cfg.TokenEndpoint)
	assert.Equal(t, "user", flow.cfg.UserEndpoint)
	assert.Equal(t, " ", flow.cfg.ScopeSeparator)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OAUTH_CLIENT_ID", "env-id")
	t.Setenv("OAUTH_CLIENT_SECRET", "env-secret")
	t.Setenv("OAUTH_REDIRECT_URI", "https://app.example.com/cb")
	t.Setenv("OAUTH_SCOPES", "read,write")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-id", cfg.ClientID)
	assert.Equal(t, "env-secret", cfg.ClientSecret)
	assert.Equal(t, "https://app.example.com/cb", cfg.RedirectURI)
	assert.Equal(t, []string{"read", "write"}, cfg.Scopes)
	assert.Equal(t, "authorize", cfg.AuthorizeEndpoint)
	assert.Equal(t, "token", cfg.TokenEndpoint)
}
