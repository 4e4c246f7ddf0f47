package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// GoogleResponseType selects what the Google SDK hands back from its
// native callback.
type GoogleResponseType string

const (
	// GoogleAccessToken — the raw object carries access_token; the
	// extended profile comes from the userinfo endpoint.
	GoogleAccessToken GoogleResponseType = "accessToken"
	// GoogleIDToken — the raw object carries a credential (ID token)
	// which is validated against Google's JWKs.
	GoogleIDToken GoogleResponseType = "idToken"
)

// GoogleSdkAdapter drives login through the Google Identity Services
// script.
type GoogleSdkAdapter struct {
	config       *ProviderConfig
	native       NativeClient
	responseType GoogleResponseType
	proxyURL     string
	client       *http.Client
	logger       *logrus.Logger
}

// NewGoogleSdkAdapter builds the adapter. native delivers the SDK's
// own callback payload.
func NewGoogleSdkAdapter(config *ProviderConfig, native NativeClient, responseType GoogleResponseType, proxyURL string, logger *logrus.Logger) *GoogleSdkAdapter {
	if logger == nil {
		logger = logrus.New()
	}
	if responseType == "" {
		responseType = GoogleAccessToken
	}
	return &GoogleSdkAdapter{
		config:       config,
		native:       native,
		responseType: responseType,
		proxyURL:     proxyURL,
		logger:       logger,
	}
}

// Config returns the provider configuration.
func (a *GoogleSdkAdapter) Config() *ProviderConfig {
	return a.config
}

// Init checks the SDK can be initialized with the configured app id.
func (a *GoogleSdkAdapter) Init(ctx context.Context) error {
	if a.config.ClientID == "" {
		return fmt.Errorf("google: client id is required")
	}
	return nil
}

// Login invokes the SDK's native login entry point.
func (a *GoogleSdkAdapter) Login(ctx context.Context) (map[string]interface{}, error) {
	if a.native == nil {
		return nil, ErrSDKNotReady
	}
	return a.native.RequestLogin(ctx)
}

// FetchProfile performs the secondary Google API call matching the
// response type.
func (a *GoogleSdkAdapter) FetchProfile(ctx context.Context, raw map[string]interface{}) (map[string]interface{}, error) {
	if a.responseType == GoogleIDToken {
		credential := stringField(raw, "credential")
		if credential == "" {
			return nil, fmt.Errorf("google: credential missing from SDK response")
		}
		return decodeIDToken(ctx, credential, a.config.JwksURL)
	}

	accessToken := stringField(raw, "access_token")
	if accessToken == "" {
		return nil, ErrNoData
	}

	req, err := http.NewRequestWithContext(ctx, "GET", a.proxyURL+a.config.UserInfoURL+"?alt=json", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

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
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return profile, nil
}
