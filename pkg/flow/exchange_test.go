package flow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExchangeFormResponse(t *testing.T) {
	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		form = r.PostForm
		// github switches to a JSON body when the request asks for it,
		// which the form parser cannot read.
		if accept := r.Header.Get("Accept"); accept == "application/json" {
			t.Errorf("expected no JSON accept header for a form-encoding provider, got '%s'", accept)
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		w.Write([]byte("access_token=tok1&token_type=bearer&scope=repo"))
	}))
	defer server.Close()

	p := &ProviderConfig{
		Name:                "github",
		ClientID:            "cid",
		ClientSecret:        "secret",
		RequiresSecret:      true,
		RedirectURL:         "http://localhost/callback",
		TokenURL:            server.URL,
		TokenResponseFormat: TokenResponseForm,
	}

	client := NewTokenExchangeClient("", nil)
	payload, err := client.Exchange(context.Background(), "C1", p)
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	if payload.AccessToken != "tok1" {
		t.Errorf("expected access token 'tok1', got '%s'", payload.AccessToken)
	}
	if payload.TokenType != "bearer" {
		t.Errorf("expected token type 'bearer', got '%s'", payload.TokenType)
	}
	if payload.Raw["scope"] != "repo" {
		t.Errorf("expected raw scope 'repo', got '%v'", payload.Raw["scope"])
	}

	if got := form["code"]; len(got) != 1 || got[0] != "C1" {
		t.Errorf("expected code 'C1', got %v", got)
	}
	if got := form["client_secret"]; len(got) != 1 || got[0] != "secret" {
		t.Errorf("expected client_secret in request, got %v", got)
	}
	if _, ok := form["grant_type"]; ok {
		t.Errorf("expected no grant_type for a provider without one")
	}
	if _, ok := form["state"]; ok {
		t.Errorf("expected no state in the token request")
	}
}

func TestExchangePKCERequest(t *testing.T) {
	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		if accept := r.Header.Get("Accept"); accept != "application/json" {
			t.Errorf("expected JSON accept header for a JSON provider, got '%s'", accept)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok2","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p := &ProviderConfig{
		Name:                "microsoft",
		ClientID:            "cid",
		RedirectURL:         "http://localhost/callback",
		TokenURL:            server.URL,
		TokenResponseFormat: TokenResponseJSON,
		GrantType:           "authorization_code",
		Scope:               "User.Read",
		SendScopeOnExchange: true,
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "plain",
	}

	client := NewTokenExchangeClient("", nil)
	payload, err := client.Exchange(context.Background(), "C2", p)
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	if payload.ExpiresIn != 3600 {
		t.Errorf("expected expires_in 3600, got %d", payload.ExpiresIn)
	}
	if got := form["grant_type"]; len(got) != 1 || got[0] != "authorization_code" {
		t.Errorf("expected grant_type, got %v", got)
	}
	if got := form["scope"]; len(got) != 1 || got[0] != "User.Read" {
		t.Errorf("expected scope on exchange, got %v", got)
	}
	if got := form["code_verifier"]; len(got) != 1 || got[0] != "challenge" {
		t.Errorf("expected plain code_verifier, got %v", got)
	}
	if _, ok := form["client_secret"]; ok {
		t.Errorf("expected no client_secret without RequiresSecret")
	}
}

func TestExchangeMissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"bad_verification_code"}`))
	}))
	defer server.Close()

	p := &ProviderConfig{
		Name:                "github",
		TokenURL:            server.URL,
		TokenResponseFormat: TokenResponseJSON,
	}

	client := NewTokenExchangeClient("", nil)
	_, err := client.Exchange(context.Background(), "bad", p)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestExchangeProxyPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/proxy" {
			t.Errorf("expected request through /proxy, got '%s'", r.URL.Path)
		}
		w.Write([]byte(`{"access_token":"tok3"}`))
	}))
	defer server.Close()

	p := &ProviderConfig{
		Name:                "instagram",
		TokenURL:            "",
		TokenResponseFormat: TokenResponseJSON,
	}

	client := NewTokenExchangeClient(server.URL+"/proxy", nil)
	if _, err := client.Exchange(context.Background(), "C3", p); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
}

func TestParseTokenResponseForm(t *testing.T) {
	raw, err := parseTokenResponse([]byte("access_token=x&token_type=bearer"), TokenResponseForm)
	if err != nil {
		t.Fatalf("failed to parse form body: %v", err)
	}
	if raw["access_token"] != "x" {
		t.Errorf("expected access_token 'x', got '%v'", raw["access_token"])
	}
}

func TestIntField(t *testing.T) {
	raw := map[string]interface{}{"a": float64(42), "b": "17", "c": "nope"}
	if got := intField(raw, "a"); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := intField(raw, "b"); got != 17 {
		t.Errorf("expected 17, got %d", got)
	}
	if got := intField(raw, "c"); got != 0 {
		t.Errorf("expected 0 for unparsable value, got %d", got)
	}
}
