package flow

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Config is the engine-wide configuration: the egress proxy, the
// optional redirect await timeout, and the per-provider descriptors.
type Config struct {
	EgressProxyURL string
	AwaitTimeout   time.Duration
	Providers      map[string]*ProviderConfig
}

// NewConfig initializes the flow configuration from environment
// variables. SOCIAL_PROVIDERS selects the providers; each one starts
// from its DefaultConfigs baseline and is overlaid with
// SOCIAL_<NAME>_* variables.
func NewConfig() (*Config, error) {
	cfg := &Config{
		Providers:      make(map[string]*ProviderConfig),
		EgressProxyURL: getEnv("EGRESS_PROXY_URL", DefaultEgressProxyURL),
	}

	if timeoutStr := getEnv("FLOW_AWAIT_TIMEOUT", ""); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing FLOW_AWAIT_TIMEOUT: %w", err)
		}
		cfg.AwaitTimeout = timeout
	}

	providersEnv := getEnv("SOCIAL_PROVIDERS", "")
	if providersEnv == "" {
		return nil, fmt.Errorf("SOCIAL_PROVIDERS is not set")
	}

	for _, providerName := range strings.Split(providersEnv, ",") {
		providerName = strings.TrimSpace(providerName)
		if providerName == "" {
			continue
		}

		providerConfig, err := loadProviderConfig(providerName)
		if err != nil {
			return nil, fmt.Errorf("error loading config for provider '%s': %w", providerName, err)
		}

		if err := InitProviderConfig(providerConfig); err != nil {
			return nil, fmt.Errorf("error initializing provider '%s': %w", providerName, err)
		}

		cfg.Providers[providerName] = providerConfig
	}

	return cfg, nil
}

// loadProviderConfig loads the configuration for a single provider.
func loadProviderConfig(providerName string) (*ProviderConfig, error) {
	prefix := fmt.Sprintf("SOCIAL_%s_", strings.ToUpper(providerName))

	defaultConfig, hasDefault := DefaultConfigs[providerName]
	var providerConfig ProviderConfig
	if hasDefault {
		providerConfig = *defaultConfig
		providerConfig.AuthParams = make(map[string]string, len(defaultConfig.AuthParams))
		for k, v := range defaultConfig.AuthParams {
			providerConfig.AuthParams[k] = v
		}
	} else {
		providerConfig = ProviderConfig{Name: providerName, Flow: FlowPopup, ResponseType: "code"}
	}

	providerConfig.ClientID = getEnv(prefix+"CLIENT_ID", providerConfig.ClientID)
	providerConfig.ClientSecret = getEnv(prefix+"CLIENT_SECRET", providerConfig.ClientSecret)
	providerConfig.RedirectURL = getEnv(prefix+"REDIRECT_URL", providerConfig.RedirectURL)
	providerConfig.AuthURL = getEnv(prefix+"AUTH_URL", providerConfig.AuthURL)
	providerConfig.TokenURL = getEnv(prefix+"TOKEN_URL", providerConfig.TokenURL)
	providerConfig.UserInfoURL = getEnv(prefix+"USERINFO_URL", providerConfig.UserInfoURL)
	providerConfig.JwksURL = getEnv(prefix+"JWKS_URL", providerConfig.JwksURL)
	providerConfig.Scope = getEnv(prefix+"SCOPE", providerConfig.Scope)
	providerConfig.Tenant = getEnv(prefix+"TENANT", providerConfig.Tenant)
	providerConfig.CodeChallenge = getEnv(prefix+"CODE_CHALLENGE", providerConfig.CodeChallenge)
	providerConfig.CodeChallengeMethod = getEnv(prefix+"CODE_CHALLENGE_METHOD", providerConfig.CodeChallengeMethod)
	providerConfig.ProfileFields = getEnv(prefix+"PROFILE_FIELDS", providerConfig.ProfileFields)
	providerConfig.ScriptID = getEnv(prefix+"SCRIPT_ID", providerConfig.ScriptID)
	providerConfig.ScriptURL = getEnv(prefix+"SCRIPT_URL", providerConfig.ScriptURL)

	var err error
	providerConfig.IsOnlyGetCode, err = getEnvBool(prefix+"ONLY_GET_CODE", providerConfig.IsOnlyGetCode)
	if err != nil {
		return nil, err
	}
	providerConfig.IsOnlyGetToken, err = getEnvBool(prefix+"ONLY_GET_TOKEN", providerConfig.IsOnlyGetToken)
	if err != nil {
		return nil, err
	}

	for key, value := range parseAdditionalParams(getEnv(prefix+"AUTH_PARAMS", "")) {
		if providerConfig.AuthParams == nil {
			providerConfig.AuthParams = make(map[string]string)
		}
		providerConfig.AuthParams[key] = value
	}

	return &providerConfig, nil
}

// InitProviderConfig resolves the tenant segment and builds the OAuth2
// configuration. It must run once before the descriptor is handed to a
// controller; afterwards the descriptor is immutable.
func InitProviderConfig(p *ProviderConfig) error {
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if p.Tenant != "" {
		p.AuthURL = strings.ReplaceAll(p.AuthURL, "{tenant}", p.Tenant)
		p.TokenURL = strings.ReplaceAll(p.TokenURL, "{tenant}", p.Tenant)
	}

	p.OAuth2Config = &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURL,
		Scopes:       []string{p.Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return nil
}

// getEnv retrieves the value of the environment variable named by the
// key, or the defaultValue if the variable is not present.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: '%s'", key, value)
	}
	return parsed, nil
}

func parseAdditionalParams(s string) map[string]string {
	params := make(map[string]string)
	if s == "" {
		return params
	}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			key := strings.TrimSpace(kv[0])
			value := strings.TrimSpace(kv[1])
			params[key] = value
		}
	}
	return params
}
