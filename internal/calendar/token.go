package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Token is a decrypted OAuth credential pair.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TokenRefresher exchanges a refresh token for a fresh access token. A
// refresh rejected by the authorization server (rather than failing in
// transit) is reported as ErrRevoked.
type TokenRefresher interface {
	Refresh(ctx context.Context, token Token) (Token, error)
}

type oauthRefresher struct {
	cfg *oauth2.Config
}

// NewOAuthRefresher builds a TokenRefresher backed by golang.org/x/oauth2.
func NewOAuthRefresher(clientID, clientSecret, tokenURL string) TokenRefresher {
	return &oauthRefresher{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
	}
}

func (r *oauthRefresher) Refresh(ctx context.Context, token Token) (Token, error) {
	if token.RefreshToken == "" {
		return Token{}, fmt.Errorf("no refresh token stored: %w", ErrRevoked)
	}

	// Expiry in the past forces the token source to perform a refresh.
	src := r.cfg.TokenSource(ctx, &oauth2.Token{
		RefreshToken: token.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})

	fresh, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && refreshRejected(retrieveErr) {
			return Token{}, fmt.Errorf("token refresh rejected: %w", ErrRevoked)
		}
		return Token{}, fmt.Errorf("token refresh failed: %w", err)
	}

	out := Token{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		Expiry:       fresh.Expiry,
	}
	// Providers may omit the refresh token on renewal; keep the old one.
	if out.RefreshToken == "" {
		out.RefreshToken = token.RefreshToken
	}
	return out, nil
}

// refreshRejected distinguishes an authorization failure from a transient
// one. invalid_grant is the revocation signal; 400/401 responses without an
// error code are treated the same way.
func refreshRejected(err *oauth2.RetrieveError) bool {
	if err.ErrorCode == "invalid_grant" {
		return true
	}
	if err.Response == nil {
		return false
	}
	return err.Response.StatusCode == http.StatusBadRequest ||
		err.Response.StatusCode == http.StatusUnauthorized
}
