// Package github provides factory functions for creating authenticated GitHub
// API clients. Callers should use the returned *github.Client with the adapter
// in apps/treecat/internal/adapters/github to read git objects.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

const defaultAPIURL = "https://api.github.com"

// Auth selects how the client authenticates. App auth is used when AppID,
// InstallationID and PrivateKeyPath are all set; otherwise Token (which may
// be empty for anonymous access).
type Auth struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
	BaseURL        string
}

// UsesApp reports whether a GitHub App installation should be used.
func (a Auth) UsesApp() bool {
	return a.AppID != 0 && a.InstallationID != 0 && a.PrivateKeyPath != ""
}

// New creates a *github.Client according to a.
func New(a Auth) (*gogithub.Client, error) {
	if a.UsesApp() {
		return NewAppClient(a.AppID, a.InstallationID, a.PrivateKeyPath, a.BaseURL)
	}
	return NewTokenClient(a.Token, a.BaseURL)
}

// NewTokenClient creates a *github.Client authenticated with a personal access token.
// Pass baseURL="" to use the real GitHub API, or a custom URL
// (e.g. "http://localhost:9090") for a mock server.
func NewTokenClient(token, baseURL string) (*gogithub.Client, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := gogithub.NewClient(httpClient)
	if u != nil {
		c.BaseURL = u
	}
	return c, nil
}

// NewAppClient creates a *github.Client authenticated as a GitHub App installation.
// privateKeyPath is the path to the app's PEM private key.
func NewAppClient(appID, installationID int64, privateKeyPath, baseURL string) (*gogithub.Client, error) {
	base := baseURL
	if base == "" {
		base = defaultAPIURL
	}
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("github app auth: %w", err)
	}
	tr.BaseURL = strings.TrimSuffix(base, "/")

	c := gogithub.NewClient(&http.Client{Transport: tr})
	if u != nil {
		c.BaseURL = u
	}
	return c, nil
}

// parseBaseURL returns the API root for baseURL, or nil for the public API.
// A URL that cannot be used is an error, never a fall back to api.github.com.
func parseBaseURL(baseURL string) (*url.URL, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" || baseURL == defaultAPIURL {
		return nil, nil
	}
	u, err := url.Parse(baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid github api url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid github api url %q: want http(s)://host", baseURL)
	}
	return u, nil
}
