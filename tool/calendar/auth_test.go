package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/leobot/leo/core"
)

func TestFileAuthenticator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "code-1", r.FormValue("code"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","refresh_token":"ref-1","expires_in":3600}`))
	}))
	defer server.Close()

	config := &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  server.URL + "/auth",
			TokenURL: server.URL + "/token",
		},
		RedirectURL: "urn:ietf:wg:oauth:2.0:oob",
		Scopes:      []string{Scope},
	}

	auth := NewFileAuthenticator(config, filepath.Join(t.TempDir(), "token.json"))

	t.Run("missing token file requires a grant", func(t *testing.T) {
		_, err := auth.TokenSource(context.Background())

		var authErr *core.AuthRequiredError
		require.True(t, errors.As(err, &authErr))
		assert.Contains(t, authErr.GrantURL, "/auth")
	})

	t.Run("exchange caches the token for later sources", func(t *testing.T) {
		require.NoError(t, auth.Exchange(context.Background(), "code-1"))

		ts, err := auth.TokenSource(context.Background())
		require.NoError(t, err)

		tok, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "tok-1", tok.AccessToken)
	})
}
