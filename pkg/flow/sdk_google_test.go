package flow

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func newJwksServer(t *testing.T, key *rsa.PrivateKey, kid string) *httptest.Server {
	t.Helper()
	n := base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes())
	body := fmt.Sprintf(`{"keys":[{"kty":"RSA","use":"sig","alg":"RS256","kid":"%s","n":"%s","e":"%s"}]}`, kid, n, e)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func signTestCredential(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign credential: %v", err)
	}
	return signed
}

func TestGoogleFetchProfileIDToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	jwks := newJwksServer(t, key, "k1")

	p := &ProviderConfig{Name: "google", Flow: FlowSDK, JwksURL: jwks.URL}
	adapter := NewGoogleSdkAdapter(p, nil, GoogleIDToken, "", nil)

	credential := signTestCredential(t, key, "k1", jwt.MapClaims{
		"sub":   "user123",
		"email": "octo@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := adapter.FetchProfile(context.Background(), map[string]interface{}{"credential": credential})
	if err != nil {
		t.Fatalf("failed to fetch profile: %v", err)
	}
	if claims["sub"] != "user123" {
		t.Errorf("expected sub 'user123', got '%v'", claims["sub"])
	}
	if claims["email"] != "octo@example.com" {
		t.Errorf("expected email claim, got '%v'", claims["email"])
	}
}

func TestGoogleFetchProfileIDTokenBadSignature(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	jwks := newJwksServer(t, key, "k1")

	p := &ProviderConfig{Name: "google", Flow: FlowSDK, JwksURL: jwks.URL}
	adapter := NewGoogleSdkAdapter(p, nil, GoogleIDToken, "", nil)

	credential := signTestCredential(t, otherKey, "k1", jwt.MapClaims{
		"sub": "user123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := adapter.FetchProfile(context.Background(), map[string]interface{}{"credential": credential}); err == nil {
		t.Errorf("expected a forged credential to be refused")
	}
}

func TestGoogleFetchProfileIDTokenMissingCredential(t *testing.T) {
	p := &ProviderConfig{Name: "google", Flow: FlowSDK}
	adapter := NewGoogleSdkAdapter(p, nil, GoogleIDToken, "", nil)

	if _, err := adapter.FetchProfile(context.Background(), map[string]interface{}{}); err == nil {
		t.Errorf("expected error for a response without a credential")
	}
}

func TestGoogleFetchProfileAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok1" {
			t.Errorf("expected bearer authorization, got '%s'", got)
		}
		if got := r.URL.Query().Get("alt"); got != "json" {
			t.Errorf("expected alt=json, got '%s'", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"user123","name":"Octo"}`))
	}))
	defer server.Close()

	p := &ProviderConfig{Name: "google", Flow: FlowSDK, UserInfoURL: server.URL}
	adapter := NewGoogleSdkAdapter(p, nil, GoogleAccessToken, "", nil)

	profile, err := adapter.FetchProfile(context.Background(), map[string]interface{}{"access_token": "tok1"})
	if err != nil {
		t.Fatalf("failed to fetch profile: %v", err)
	}
	if profile["name"] != "Octo" {
		t.Errorf("expected profile name 'Octo', got '%v'", profile["name"])
	}
}
