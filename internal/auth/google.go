// Package auth provides Google OAuth 2.0 authentication via the
// limited-input device flow, with a local token cache.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	deviceCodeURL = "https://oauth2.googleapis.com/device/code"
	tokenURL      = "https://oauth2.googleapis.com/token"
	userinfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"

	defaultScopes = "https://www.googleapis.com/auth/spreadsheets " +
		"https://www.googleapis.com/auth/gmail.modify " +
		"https://www.googleapis.com/auth/calendar.readonly " +
		"https://www.googleapis.com/auth/drive.file " +
		"https://www.googleapis.com/auth/userinfo.email"

	tokenFileName = "token.json"
	refreshWindow = 5 * time.Minute
	pollInterval  = 5 * time.Second
	deviceTimeout = 5 * time.Minute
)

// Token holds the OAuth 2.0 tokens from Google.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// IsExpired returns true if the token has expired.
func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// ExpiresIn returns the duration until the token expires.
func (t *Token) ExpiresIn() time.Duration {
	return time.Until(t.ExpiresAt)
}

// NeedsRefresh returns true if the token expires within the refresh window.
func (t *Token) NeedsRefresh() bool {
	return t.ExpiresIn() < refreshWindow
}

// Credentials identifies the OAuth client used for the device flow.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// CredentialsFromEnv reads the OAuth client from SHEETKIT_CLIENT_ID and
// SHEETKIT_CLIENT_SECRET.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		ClientID:     os.Getenv("SHEETKIT_CLIENT_ID"),
		ClientSecret: os.Getenv("SHEETKIT_CLIENT_SECRET"),
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return Credentials{}, fmt.Errorf("SHEETKIT_CLIENT_ID / SHEETKIT_CLIENT_SECRET are not set — create an OAuth client of type \"TVs and Limited Input devices\" in the Google Cloud console\nSee: sheetkit auth --help")
	}
	return creds, nil
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// DeviceCodeFlow initiates the OAuth device code flow and blocks until
// the user authorizes or the code expires.
func DeviceCodeFlow(ctx context.Context, creds Credentials) (*Token, error) {
	resp, err := http.PostForm(deviceCodeURL, url.Values{
		"client_id": {creds.ClientID},
		"scope":     {defaultScopes},
	})
	if err != nil {
		return nil, fmt.Errorf("could not contact Google login service: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device code request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var dcResp deviceCodeResponse
	if err := json.Unmarshal(body, &dcResp); err != nil {
		return nil, fmt.Errorf("could not parse device code response: %w", err)
	}

	fmt.Printf("Open %s and enter code: %s\n", dcResp.VerificationURL, dcResp.UserCode)
	fmt.Println("Waiting for authorization...")

	interval := pollInterval
	if dcResp.Interval > 0 {
		interval = time.Duration(dcResp.Interval) * time.Second
	}

	deadline := time.Now().Add(deviceTimeout)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("device code authorization timed out — run: sheetkit auth login to try again")
		}

		token, err := pollToken(creds, dcResp.DeviceCode)
		if err != nil {
			if err.Error() == "authorization_pending" {
				continue
			}
			if err.Error() == "slow_down" {
				interval += 5 * time.Second
				continue
			}
			return nil, err
		}

		if err := SaveToken(token); err != nil {
			return nil, fmt.Errorf("authenticated but could not save token: %w", err)
		}

		return token, nil
	}
}

func pollToken(creds Credentials, deviceCode string) (*Token, error) {
	resp, err := http.PostForm(tokenURL, url.Values{
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
		"grant_type":    {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code":   {deviceCode},
	})
	if err != nil {
		return nil, fmt.Errorf("token poll failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("could not parse token response: %w", err)
	}

	if tr.Error != "" {
		if tr.Error == "authorization_pending" || tr.Error == "slow_down" {
			return nil, fmt.Errorf(tr.Error)
		}
		if tr.Error == "expired_token" {
			return nil, fmt.Errorf("authorization code expired — run: sheetkit auth login to try again")
		}
		return nil, fmt.Errorf("authentication failed: %s — %s", tr.Error, tr.ErrorDesc)
	}

	return &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		TokenType:    tr.TokenType,
	}, nil
}

// RefreshIfNeeded refreshes the token if it expires within 5 minutes.
// Google does not rotate refresh tokens on refresh, so the old one is
// kept when the response omits it.
func RefreshIfNeeded(ctx context.Context, t *Token, creds Credentials) (*Token, error) {
	if !t.NeedsRefresh() {
		return t, nil
	}
	if t.RefreshToken == "" {
		return nil, fmt.Errorf("token expired and no refresh token available — run: sheetkit auth login")
	}

	resp, err := http.PostForm(tokenURL, url.Values{
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {t.RefreshToken},
	})
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("could not parse refresh response: %w", err)
	}

	if tr.Error != "" {
		return nil, fmt.Errorf("token refresh failed: %s — run: sheetkit auth login", tr.ErrorDesc)
	}

	newToken := &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		TokenType:    tr.TokenType,
	}
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = t.RefreshToken
	}

	if err := SaveToken(newToken); err != nil {
		return nil, fmt.Errorf("refreshed but could not save token: %w", err)
	}

	return newToken, nil
}

func tokenDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sheetkit"), nil
}

func tokenPath() (string, error) {
	dir, err := tokenDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFileName), nil
}

// TokenPathOverride allows tests to override the token path.
var TokenPathOverride string

func resolvedTokenPath() (string, error) {
	if TokenPathOverride != "" {
		return TokenPathOverride, nil
	}
	return tokenPath()
}

// LoadToken loads the saved token from ~/.sheetkit/token.json.
func LoadToken() (*Token, error) {
	path, err := resolvedTokenPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not authenticated — run: sheetkit auth login")
		}
		return nil, fmt.Errorf("could not read token file: %w", err)
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("token file is corrupted — run: sheetkit auth login")
	}

	return &t, nil
}

// SaveToken persists the token to ~/.sheetkit/token.json with 0600 permissions.
func SaveToken(t *Token) error {
	path, err := resolvedTokenPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("could not write token file: %w", err)
	}

	return nil
}

// DeleteToken removes the token file.
func DeleteToken() error {
	path, err := resolvedTokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token: %w", err)
	}
	return nil
}

// WhoAmI returns the email of the authenticated user.
func WhoAmI(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", userinfoURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, string(body))
	}

	var user struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("could not parse user info: %w", err)
	}
	return user.Email, nil
}

// Scopes returns the OAuth scopes as a display-friendly slice.
func Scopes() []string {
	return strings.Split(defaultScopes, " ")
}
