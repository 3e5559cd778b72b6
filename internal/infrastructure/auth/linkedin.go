package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hamidnorouzi/taskpilot/internal/application/auth"
	"github.com/hamidnorouzi/taskpilot/internal/domain"
)

const (
	defaultLinkedInAuthURL     = "https://www.linkedin.com/oauth/v2/authorization"
	defaultLinkedInTokenURL    = "https://www.linkedin.com/oauth/v2/accessToken"
	defaultLinkedInUserInfoURL = "https://api.linkedin.com/v2/userinfo"

	linkedinScope = "openid profile email"
)

// LinkedInConfig configures the LinkedIn OAuth provider. The endpoint
// URLs default to LinkedIn's and are overridable for tests.
type LinkedInConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// LinkedIn implements the manual authorization-code flow against
// LinkedIn's OIDC endpoints. Unlike the goth-backed providers, the state
// nonce is owned by the caller (stored on the server-side session).
type LinkedIn struct {
	config LinkedInConfig
	client *http.Client
}

// NewLinkedIn builds the provider.
func NewLinkedIn(config LinkedInConfig) *LinkedIn {
	if config.AuthURL == "" {
		config.AuthURL = defaultLinkedInAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultLinkedInTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultLinkedInUserInfoURL
	}
	return &LinkedIn{
		config: config,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Name returns the platform name.
func (p *LinkedIn) Name() string { return domain.PlatformLinkedIn }

// AuthCodeURL builds the authorization URL carrying the state nonce.
func (p *LinkedIn) AuthCodeURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"state":         {state},
		"scope":         {linkedinScope},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

type linkedinTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type linkedinUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Exchange trades the authorization code for an access token. One network
// round trip; the code is single use and never retried.
func (p *LinkedIn) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange status %d: %s", resp.StatusCode, string(body))
	}

	var token linkedinTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}
	return token.AccessToken, nil
}

// FetchProfile loads the userinfo endpoint with the access token.
func (p *LinkedIn) FetchProfile(ctx context.Context, accessToken string) (*auth.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, string(body))
	}

	var info linkedinUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse userinfo response: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("empty sub in userinfo response")
	}
	return &auth.Profile{
		SubjectID: info.Sub,
		Name:      info.Name,
		Email:     info.Email,
		Picture:   info.Picture,
	}, nil
}

var _ auth.Provider = (*LinkedIn)(nil)
