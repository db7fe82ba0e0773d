package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"

	"github.com/leobot/leo/core"
)

// Scope is the only Calendar permission the tool needs.
const Scope = "https://www.googleapis.com/auth/calendar.events"

// Authenticator supplies OAuth2 tokens for the Calendar API. When no usable
// credential exists it returns core.AuthRequiredError carrying the consent
// URL, so the pending tool call is deferred rather than failed outright.
type Authenticator interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// FileAuthenticator reads a cached OAuth2 token from disk and refreshes it
// through the configured client. The token file is created by completing the
// consent flow once (Exchange + SaveToken).
type FileAuthenticator struct {
	config    *oauth2.Config
	tokenPath string
}

// NewFileAuthenticator creates an authenticator over a token cache file.
func NewFileAuthenticator(config *oauth2.Config, tokenPath string) *FileAuthenticator {
	return &FileAuthenticator{config: config, tokenPath: tokenPath}
}

// TokenSource implements Authenticator. A missing or unreadable token file
// means the user has not granted access yet.
func (a *FileAuthenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := a.loadToken()
	if err != nil {
		return nil, &core.AuthRequiredError{
			Provider: "google-calendar",
			GrantURL: a.GrantURL(),
		}
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, &core.AuthRequiredError{
			Provider: "google-calendar",
			GrantURL: a.GrantURL(),
		}
	}

	// An expired token with a refresh token is refreshed transparently by
	// the oauth2 transport.
	return a.config.TokenSource(ctx, tok), nil
}

// GrantURL returns the consent page URL for the interactive grant flow.
func (a *FileAuthenticator) GrantURL() string {
	return a.config.AuthCodeURL("state", oauth2.AccessTypeOffline)
}

// Exchange completes the consent flow with the code from the consent page and
// caches the resulting token.
func (a *FileAuthenticator) Exchange(ctx context.Context, code string) error {
	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	return a.saveToken(tok)
}

func (a *FileAuthenticator) loadToken() (*oauth2.Token, error) {
	f, err := os.Open(a.tokenPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return tok, nil
}

func (a *FileAuthenticator) saveToken(tok *oauth2.Token) error {
	f, err := os.OpenFile(a.tokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create token file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(tok)
}

// StaticTokenAuthenticator wraps a fixed token, useful for tests and
// short-lived credentials.
type StaticTokenAuthenticator struct {
	Token *oauth2.Token
}

// TokenSource implements Authenticator.
func (a *StaticTokenAuthenticator) TokenSource(context.Context) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(a.Token), nil
}
