package mock

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/conduit/packages/client"
)

func TestClient_MatchByMethodAndPath(t *testing.T) {
	m := NewClient()
	m.On("GET", "/users").ReplyJSON(200, `{"users":[]}`)

	conn := client.NewConnector("https://api.example.com", client.WithMockClient(m))

	resp, err := conn.Send(context.Background(), client.NewRequest("GET", "/users"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header("Content-Type"))
	assert.True(t, resp.Get("users").Exists())
}

func TestClient_MethodMismatch(t *testing.T) {
	m := NewClient()
	m.On("GET", "/users").Reply(200, "ok")

	conn := client.NewConnector("https://api.example.com", client.WithMockClient(m))

	_, err := conn.Send(context.Background(), client.NewRequest("DELETE", "/users"))
	assert.ErrorIs(t, err, client.ErrNoMockMatch)
}

func TestClient_PathParams(t *testing.T) {
	m := NewClient()
	m.On("GET", "/users/{id}").ReplyJSON(200, `{"id": "{id}"}`)

	conn := client.NewConnector("https://api.example.com", client.WithMockClient(m))

	resp, err := conn.Send(context.Background(), client.NewRequest("GET", "/users/42"))
	require.NoError(t, err)
	assert.Equal(t, "42", resp.Get("id").String())
}

func TestClient_FirstRegisteredRouteWins(t *testing.T) {
	m := NewClient()
	m.On("GET", "/users/{id}").Reply(200, "param")
	m.On("GET", "/users/me").Reply(200, "literal")

	conn := client.NewConnector("https://api.example.com", client.WithMockClient(m))

	resp, err := conn.Send(context.Background(), client.NewRequest("GET", "/users/me"))
	require.NoError(t, err)
	assert.Equal(t, "param", resp.BodyString())
}

func TestClient_RespondWith(t *testing.T) {
	m := NewClient()
	m.On("GET", "/echo").RespondWith(func(pr *client.PendingRequest) *StubResponse {
		return &StubResponse{
			StatusCode: 200,
			Body:       pr.Query().GetString("message"),
		}
	})

	conn := client.NewConnector("https://api.example.com", client.WithMockClient(m))
	req := client.NewRequest("GET", "/echo").SetQueryParam("message", "hello")

	resp, err := conn.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.BodyString())
}

func TestClient_RecordsEveryDispatch(t *testing.T) {
	m := NewClient()
	m.On("GET", "/a").Reply(200, "ok")

	conn := client.NewConnector("https://api.example.com", client.WithMockClient(m))

	_, err := conn.Send(context.Background(), client.NewRequest("GET", "/a"))
	require.NoError(t, err)
	_, err = conn.Send(context.Background(), client.NewRequest("GET", "/unmatched"))
	require.Error(t, err)

	assert.Equal(t, 2, m.SentCount())
	recorded := m.Recorded()
	assert.Equal(t, "/a", recorded[0].Path())
	assert.Equal(t, "/unmatched", recorded[1].Path())
	assert.Equal(t, "/unmatched", m.Last().Path())
}

func TestClient_Reset(t *testing.T) {
	m := NewClient()
	m.On("GET", "/a").Reply(200, "ok")

	conn := client.NewConnector("https://api.example.com", client.WithMockClient(m))
	_, err := conn.Send(context.Background(), client.NewRequest("GET", "/a"))
	require.NoError(t, err)

	m.Reset()
	assert.Equal(t, 0, m.SentCount())
	assert.Nil(t, m.Last())

	_, err = conn.Send(context.Background(), client.NewRequest("GET", "/a"))
	assert.ErrorIs(t, err, client.ErrNoMockMatch)
}

func TestClient_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	fixture := `routes:
  - method: GET
    path: /users/{id}
    status: 200
    headers:
      Content-Type: application/json
    body: '{"id": "{id}"}'
  - method: POST
    path: /users
    status: 201
    body: created
`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	m := NewClient()
	require.NoError(t, m.LoadFile(path))

	conn := client.NewConnector("https://api.example.com", client.WithMockClient(m))

	resp, err := conn.Send(context.Background(), client.NewRequest("GET", "/users/7"))
	require.NoError(t, err)
	assert.Equal(t, "7", resp.Get("id").String())

	resp, err = conn.Send(context.Background(), client.NewRequest("POST", "/users"))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "created", resp.BodyString())
}

func TestLoadRoutes_InvalidFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - status: 200\n"), 0o644))

	_, err := LoadRoutes(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs method and path")
}
