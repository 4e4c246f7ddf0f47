package flow

import "golang.org/x/oauth2"

// FlowKind selects how a provider's login is driven.
type FlowKind string

const (
	// FlowPopup runs the authorization-code flow in a popup window,
	// bridged back to the opener through the CodeRelay.
	FlowPopup FlowKind = "popup"
	// FlowSDK delegates the login to a vendor script SDK.
	FlowSDK FlowKind = "sdk"
)

// TokenResponseFormat describes how a provider encodes its token
// endpoint response body.
type TokenResponseFormat string

const (
	// TokenResponseForm is a URL-query-encoded body (github).
	TokenResponseForm TokenResponseFormat = "form"
	// TokenResponseJSON is a structured JSON body.
	TokenResponseJSON TokenResponseFormat = "json"
)

// ProfileAuthStyle describes how the access token is attached to the
// profile endpoint request.
type ProfileAuthStyle string

const (
	ProfileAuthBearer ProfileAuthStyle = "bearer" // Authorization: Bearer <token>
	ProfileAuthToken  ProfileAuthStyle = "token"  // Authorization: token <token>
	ProfileAuthQuery  ProfileAuthStyle = "query"  // access_token=<token> query param
)

// ProviderConfig holds the complete descriptor for a single provider.
// Instances are created at startup and never mutated afterwards; every
// per-provider behavioral difference of the engine is data here.
type ProviderConfig struct {
	Name           string   // Provider name (e.g. github, google)
	Flow           FlowKind // popup or sdk
	ClientID       string   // OAuth2 Client ID (SDK app id for sdk providers)
	ClientSecret   string   // OAuth2 Client Secret
	RequiresSecret bool     // Whether the token exchange sends the secret
	RedirectURL    string   // OAuth2 Redirect URL (the popup page)
	AuthURL        string   // Authorization endpoint
	TokenURL       string   // Token endpoint
	UserInfoURL    string   // Profile endpoint
	JwksURL        string   // JWKs endpoint for ID token validation (sdk idToken mode)
	Scope          string   // Scope string, provider-native separator
	ResponseType   string   // Authorize response_type, normally "code"
	Tenant         string   // Tenant segment substituted into {tenant} URLs

	// AuthParams are provider-specific extras appended to the authorize
	// request (allow_signup, prompt, response_mode, ...).
	AuthParams map[string]string

	// Token exchange shape.
	TokenResponseFormat TokenResponseFormat
	GrantType           string // "" when the provider rejects grant_type (github)
	SendScopeOnExchange bool   // microsoft includes scope in the token request

	// PKCE. An empty CodeChallenge disables it. With the "plain" method
	// the verifier sent on exchange equals the challenge.
	CodeChallenge       string
	CodeChallengeMethod string

	// Profile fetch shape.
	ProfileAuthStyle ProfileAuthStyle
	ProfileFields    string // fields selector for providers that want one

	// SDK flow descriptor.
	ScriptID  string
	ScriptURL string

	// Caller flags. IsOnlyGetCode resolves right after the relay
	// delivery with {code}; IsOnlyGetToken skips the profile fetch.
	IsOnlyGetCode  bool
	IsOnlyGetToken bool

	// OAuth2Config is built from the fields above at load time and used
	// for authorize-URL construction.
	OAuth2Config *oauth2.Config
}
