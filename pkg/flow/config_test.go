package flow

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewConfigRequiresProviders(t *testing.T) {
	os.Clearenv()
	_, err := NewConfig()
	if err == nil {
		t.Errorf("expected error when SOCIAL_PROVIDERS is not set")
	}
}

func TestNewConfigGithubDefaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("SOCIAL_PROVIDERS", "github")
	os.Setenv("SOCIAL_GITHUB_CLIENT_ID", "testclientid")
	os.Setenv("SOCIAL_GITHUB_CLIENT_SECRET", "testclientsecret")
	os.Setenv("SOCIAL_GITHUB_REDIRECT_URL", "http://localhost/callback")

	config, err := NewConfig()
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	p, ok := config.Providers["github"]
	if !ok {
		t.Fatalf("expected github provider to be configured")
	}
	if p.ClientID != "testclientid" {
		t.Errorf("expected ClientID 'testclientid', got '%s'", p.ClientID)
	}
	if p.AuthURL != "https://github.com/login/oauth/authorize" {
		t.Errorf("default AuthURL mismatch: '%s'", p.AuthURL)
	}
	if p.TokenResponseFormat != TokenResponseForm {
		t.Errorf("expected form token response, got '%s'", p.TokenResponseFormat)
	}
	if !p.RequiresSecret {
		t.Errorf("expected github to require the client secret")
	}
	if p.AuthParams["allow_signup"] != "true" {
		t.Errorf("expected default allow_signup auth param")
	}
	if p.OAuth2Config == nil {
		t.Fatalf("expected OAuth2Config to be built")
	}
	if p.OAuth2Config.Endpoint.AuthURL != p.AuthURL {
		t.Errorf("OAuth2Config endpoint mismatch: '%s'", p.OAuth2Config.Endpoint.AuthURL)
	}
	if config.EgressProxyURL != DefaultEgressProxyURL {
		t.Errorf("expected default egress proxy, got '%s'", config.EgressProxyURL)
	}
}

func TestNewConfigEnvOverlay(t *testing.T) {
	os.Clearenv()
	os.Setenv("SOCIAL_PROVIDERS", "github")
	os.Setenv("SOCIAL_GITHUB_CLIENT_ID", "id")
	os.Setenv("SOCIAL_GITHUB_SCOPE", "read:user")
	os.Setenv("SOCIAL_GITHUB_AUTH_PARAMS", "allow_signup=false,login=someone")
	os.Setenv("SOCIAL_GITHUB_ONLY_GET_CODE", "true")
	os.Setenv("EGRESS_PROXY_URL", "http://localhost:8080/proxy?")
	os.Setenv("FLOW_AWAIT_TIMEOUT", "90s")

	config, err := NewConfig()
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	p := config.Providers["github"]
	if p.Scope != "read:user" {
		t.Errorf("expected scope override, got '%s'", p.Scope)
	}
	if p.AuthParams["allow_signup"] != "false" || p.AuthParams["login"] != "someone" {
		t.Errorf("auth params overlay mismatch: %v", p.AuthParams)
	}
	if !p.IsOnlyGetCode {
		t.Errorf("expected IsOnlyGetCode to be set")
	}
	if config.EgressProxyURL != "http://localhost:8080/proxy?" {
		t.Errorf("egress proxy override mismatch: '%s'", config.EgressProxyURL)
	}
	if config.AwaitTimeout != 90*time.Second {
		t.Errorf("expected 90s await timeout, got %v", config.AwaitTimeout)
	}
}

func TestNewConfigMicrosoftTenant(t *testing.T) {
	os.Clearenv()
	os.Setenv("SOCIAL_PROVIDERS", "microsoft")
	os.Setenv("SOCIAL_MICROSOFT_CLIENT_ID", "id")
	os.Setenv("SOCIAL_MICROSOFT_TENANT", "contoso")

	config, err := NewConfig()
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	p := config.Providers["microsoft"]
	if strings.Contains(p.AuthURL, "{tenant}") || strings.Contains(p.TokenURL, "{tenant}") {
		t.Errorf("expected tenant segment to be substituted: %s %s", p.AuthURL, p.TokenURL)
	}
	if !strings.Contains(p.TokenURL, "/contoso/") {
		t.Errorf("expected tenant 'contoso' in token URL, got '%s'", p.TokenURL)
	}
	if !p.SendScopeOnExchange {
		t.Errorf("expected microsoft to send scope on exchange")
	}
	if p.CodeChallenge == "" || p.CodeChallengeMethod != "plain" {
		t.Errorf("expected plain PKCE defaults, got '%s'/'%s'", p.CodeChallenge, p.CodeChallengeMethod)
	}
	if p.RequiresSecret {
		t.Errorf("expected microsoft exchange without client secret")
	}
}

func TestNewConfigUnknownProvider(t *testing.T) {
	os.Clearenv()
	os.Setenv("SOCIAL_PROVIDERS", "gitea")
	os.Setenv("SOCIAL_GITEA_CLIENT_ID", "id")
	os.Setenv("SOCIAL_GITEA_AUTH_URL", "http://localhost/auth")
	os.Setenv("SOCIAL_GITEA_TOKEN_URL", "http://localhost/token")

	config, err := NewConfig()
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	p := config.Providers["gitea"]
	if p.Flow != FlowPopup {
		t.Errorf("expected popup flow for unlisted provider, got '%s'", p.Flow)
	}
	if p.AuthURL != "http://localhost/auth" {
		t.Errorf("expected env auth URL, got '%s'", p.AuthURL)
	}
}

func TestParseAdditionalParams(t *testing.T) {
	params := parseAdditionalParams("a=1, b = two ,broken,c=3")
	if len(params) != 3 {
		t.Errorf("expected 3 params, got %d", len(params))
	}
	if params["a"] != "1" || params["b"] != "two" || params["c"] != "3" {
		t.Errorf("param values mismatch: %v", params)
	}
}
