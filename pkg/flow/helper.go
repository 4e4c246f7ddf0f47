package flow

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// generateStateString generates a random state string for CSRF protection.
func generateStateString() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("unable to generate state string")
	}
	return base64.URLEncoding.EncodeToString(b)
}

// StateForProvider builds the csrf state round-tripped through the
// authorization redirect. The "_<provider>" suffix is what binds the
// redirect back to the listener that opened the popup.
func StateForProvider(provider string) string {
	return generateStateString() + "_" + provider
}

// StateMatchesProvider reports whether a redirect state belongs to the
// given provider.
func StateMatchesProvider(state, provider string) bool {
	return provider != "" && strings.HasSuffix(state, "_"+provider)
}

// mergeData merges base and override into a new map; override fields
// win on collision. The precedence is compatibility-relevant: for the
// popup path token fields override profile fields, for the SDK path
// the raw SDK object overrides the extended profile.
func mergeData(base, override map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
