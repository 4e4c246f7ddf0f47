package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// FacebookSdkAdapter drives login through the Facebook JS SDK. The raw
// object is the SDK's authResponse; the extended profile is a Graph
// API /me lookup with the configured field list.
type FacebookSdkAdapter struct {
	config   *ProviderConfig
	native   NativeClient
	proxyURL string
	client   *http.Client
	logger   *logrus.Logger
}

// NewFacebookSdkAdapter builds the adapter. native delivers the SDK's
// own callback payload.
func NewFacebookSdkAdapter(config *ProviderConfig, native NativeClient, proxyURL string, logger *logrus.Logger) *FacebookSdkAdapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &FacebookSdkAdapter{
		config:   config,
		native:   native,
		proxyURL: proxyURL,
		logger:   logger,
	}
}

// Config returns the provider configuration.
func (a *FacebookSdkAdapter) Config() *ProviderConfig {
	return a.config
}

// Init checks the SDK can be initialized with the configured app id.
func (a *FacebookSdkAdapter) Init(ctx context.Context) error {
	if a.config.ClientID == "" {
		return fmt.Errorf("facebook: app id is required")
	}
	return nil
}

// Login invokes the SDK's native login entry point.
func (a *FacebookSdkAdapter) Login(ctx context.Context) (map[string]interface{}, error) {
	if a.native == nil {
		return nil, ErrSDKNotReady
	}
	return a.native.RequestLogin(ctx)
}

// FetchProfile retrieves the Graph API profile for the authResponse
// access token.
func (a *FacebookSdkAdapter) FetchProfile(ctx context.Context, raw map[string]interface{}) (map[string]interface{}, error) {
	accessToken := stringField(raw, "access_token")
	if accessToken == "" {
		accessToken = stringField(raw, "accessToken")
	}
	if accessToken == "" {
		return nil, ErrNoData
	}

	query := url.Values{}
	if a.config.ProfileFields != "" {
		query.Set("fields", a.config.ProfileFields)
	}
	query.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, "GET", a.proxyURL+a.config.UserInfoURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	client := a.client
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
	return profile, nil
}
