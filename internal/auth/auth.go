// Package auth builds authorized Google API clients from stored OAuth
// credentials. The interactive consent flow happens elsewhere; this package
// only turns a persisted token into an HTTP client whose transport refreshes
// it as needed.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
)

// Credentials configures the OAuth client used for Drive access.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
}

// oauthConfig returns the oauth2 configuration for Drive access.
func oauthConfig(creds Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scopes:       []string{gdrive.DriveScope},
		Endpoint:     google.Endpoint,
	}
}

// NewDriveHTTPClient loads the persisted token and returns an HTTP client
// that authorizes Drive requests, refreshing the token when it expires.
func NewDriveHTTPClient(ctx context.Context, creds Credentials) (*http.Client, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("OAuth client ID and secret are required")
	}
	token, err := loadToken(creds.TokenFile)
	if err != nil {
		return nil, err
	}
	return oauthConfig(creds).Client(ctx, token), nil
}

// SaveToken persists a token to disk with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// loadToken reads a persisted token from disk.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}
