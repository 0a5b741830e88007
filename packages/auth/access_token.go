package auth

import (
	"time"

	"github.com/abdul-hamid-achik/conduit/packages/client"
)

// expirySkew pads expiry checks against clock drift between this process and
// the authorization server.
const expirySkew = 30 * time.Second

// AccessToken is an OAuth2 access token with an optional refresh token. The
// expiry is stored as an absolute instant, never a duration, so a token
// loaded later still reports expiry correctly.
type AccessToken struct {
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
}

// NewAccessToken creates a token expiring in expiresIn seconds from now.
// Pass zero when the authorization server did not report a lifetime.
func NewAccessToken(token, refreshToken string, expiresIn int) *AccessToken {
	t := &AccessToken{
		Token:        token,
		RefreshToken: refreshToken,
	}
	if expiresIn > 0 {
		t.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return t
}

// IsExpired reports whether the token is past (or within 30 seconds of) its
// expiry. Tokens without a known expiry never report expired.
func (t *AccessToken) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expirySkew).After(t.ExpiresAt)
}

// Refreshable reports whether the token carries a refresh token.
func (t *AccessToken) Refreshable() bool {
	return t.RefreshToken != ""
}

// Apply injects the access token as a bearer Authorization header.
func (t *AccessToken) Apply(pr *client.PendingRequest) {
	pr.Headers().Set("Authorization", "Bearer "+t.Token)
}
