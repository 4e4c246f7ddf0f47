package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ProfileFetcher retrieves the user profile with the access token
// obtained from the exchange, through the same egress proxy.
type ProfileFetcher struct {
	ProxyURL string
	Client   *http.Client
	Limiter  *rate.Limiter
	Logger   *logrus.Logger
}

// NewProfileFetcher initializes a profile fetcher.
func NewProfileFetcher(proxyURL string, logger *logrus.Logger) *ProfileFetcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &ProfileFetcher{ProxyURL: proxyURL, Logger: logger}
}

// Fetch issues the authenticated profile request for the provider and
// decodes the provider-specific JSON body.
func (f *ProfileFetcher) Fetch(ctx context.Context, token *TokenPayload, p *ProviderConfig) (map[string]interface{}, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := p.UserInfoURL
	if p.ProfileAuthStyle == ProfileAuthQuery {
		query := url.Values{}
		if p.ProfileFields != "" {
			query.Set("fields", p.ProfileFields)
		}
		query.Set("access_token", token.AccessToken)
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", f.ProxyURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	switch p.ProfileAuthStyle {
	case ProfileAuthBearer:
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	case ProfileAuthToken:
		req.Header.Set("Authorization", "token "+token.AccessToken)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	profile := make(map[string]interface{})
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}

	f.Logger.WithField("provider", p.Name).Debug("Profile fetched")
	return profile, nil
}
