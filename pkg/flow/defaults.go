package flow

// DefaultEgressProxyURL is prefixed to token/profile endpoint requests
// so browser-origin deployments pass the providers' CORS restrictions.
const DefaultEgressProxyURL = "https://corsproxy.io/?"

// defaultMicrosoftChallenge is the plain-method PKCE challenge used
// when no per-deployment challenge is configured.
const defaultMicrosoftChallenge = "19cfc47c216dacba8ca23eeee817603e2ba34fe0976378662ba31688ed302fa9"

// DefaultConfigs holds default configurations for the supported
// providers. Environment configuration overlays these.
var DefaultConfigs = map[string]*ProviderConfig{
	"github": {
		Name:                "github",
		Flow:                FlowPopup,
		AuthURL:             "https://github.com/login/oauth/authorize",
		TokenURL:            "https://github.com/login/oauth/access_token",
		UserInfoURL:         "https://api.github.com/user",
		Scope:               "repo,gist",
		ResponseType:        "code",
		RequiresSecret:      true,
		AuthParams:          map[string]string{"allow_signup": "true"},
		TokenResponseFormat: TokenResponseForm,
		ProfileAuthStyle:    ProfileAuthToken,
	},
	"instagram": {
		Name:                "instagram",
		Flow:                FlowPopup,
		AuthURL:             "https://api.instagram.com/oauth/authorize",
		TokenURL:            "https://api.instagram.com/oauth/access_token",
		UserInfoURL:         "https://graph.instagram.com/me",
		Scope:               "user_profile,user_media",
		ResponseType:        "code",
		RequiresSecret:      true,
		GrantType:           "authorization_code",
		TokenResponseFormat: TokenResponseJSON,
		ProfileAuthStyle:    ProfileAuthQuery,
		ProfileFields:       "id,username,account_type,media_count",
	},
	"microsoft": {
		Name:                "microsoft",
		Flow:                FlowPopup,
		AuthURL:             "https://login.microsoftonline.com/{tenant}/oauth2/v2.0/authorize",
		TokenURL:            "https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token",
		UserInfoURL:         "https://graph.microsoft.com/v1.0/me",
		Scope:               "User.Read",
		ResponseType:        "code",
		Tenant:              "common",
		AuthParams:          map[string]string{"response_mode": "query", "prompt": "select_account"},
		TokenResponseFormat: TokenResponseJSON,
		GrantType:           "authorization_code",
		SendScopeOnExchange: true,
		CodeChallenge:       defaultMicrosoftChallenge,
		CodeChallengeMethod: "plain",
		ProfileAuthStyle:    ProfileAuthBearer,
	},
	"google": {
		Name:             "google",
		Flow:             FlowSDK,
		UserInfoURL:      "https://www.googleapis.com/oauth2/v3/userinfo",
		JwksURL:          "https://www.googleapis.com/oauth2/v3/certs",
		Scope:            "https://www.googleapis.com/auth/userinfo.profile",
		AuthParams:       map[string]string{"prompt": "select_account"},
		ProfileAuthStyle: ProfileAuthBearer,
		ScriptID:         "google-login",
		ScriptURL:        "https://accounts.google.com/gsi/client",
	},
	"facebook": {
		Name:             "facebook",
		Flow:             FlowSDK,
		UserInfoURL:      "https://graph.facebook.com/me",
		Scope:            "email,public_profile",
		ProfileAuthStyle: ProfileAuthQuery,
		ProfileFields:    "id,first_name,last_name,middle_name,name,name_format,picture,short_name,email,gender",
		ScriptID:         "facebook-jssdk",
		ScriptURL:        "https://connect.facebook.net/en_EN/sdk.js",
	},
}
