package auth

import (
	"context"
	"fmt"
	"net/http"
)

// BearerTransport injects the Bearer token into every HTTP request.
type BearerTransport struct {
	Token string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.Header.Set("Authorization", "Bearer "+t.Token)
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req2)
}

// RequireAuth loads and validates the auth token, returning an authenticated HTTP client.
func RequireAuth(ctx context.Context) (*http.Client, error) {
	token, err := LoadToken()
	if err != nil {
		return nil, fmt.Errorf("not authenticated — run: sheetkit auth login\n(requires SHEETKIT_CLIENT_ID and SHEETKIT_CLIENT_SECRET)")
	}

	creds, err := CredentialsFromEnv()
	if err != nil {
		return nil, err
	}

	token, err = RefreshIfNeeded(ctx, token, creds)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w\nRun: sheetkit auth login", err)
	}

	return &http.Client{
		Transport: &BearerTransport{Token: token.AccessToken},
	}, nil
}
