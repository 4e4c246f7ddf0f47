package flow

import "errors"

var (
	// ErrLoginInProgress is returned when Login is invoked while a
	// session for the same provider is already awaiting its redirect or
	// exchanging a code. The call is a no-op: no popup, no callbacks.
	ErrLoginInProgress = errors.New("login already in progress")

	// ErrNoData is surfaced when the token endpoint answered without an
	// access_token field.
	ErrNoData = errors.New("no data")

	// ErrSDKNotReady is surfaced when the SDK login entry point is
	// invoked before the vendor script finished loading.
	ErrSDKNotReady = errors.New("SDK isn't loaded")

	// ErrAbandoned is surfaced when an optional await timeout is
	// configured and the popup never delivered a code.
	ErrAbandoned = errors.New("authorization abandoned")

	// ErrUnknownProvider is returned for a provider name with no
	// configuration.
	ErrUnknownProvider = errors.New("unknown provider")
)

// ScriptLoadError wraps a vendor script load failure. The script id
// stays unregistered so a later EnsureLoaded may retry.
type ScriptLoadError struct {
	ScriptID string
	Err      error
}

func (e *ScriptLoadError) Error() string {
	return "failed to load script " + e.ScriptID + ": " + e.Err.Error()
}

func (e *ScriptLoadError) Unwrap() error { return e.Err }

// SdkRejection carries the raw object a vendor SDK handed to its error
// callback, or the response of a user-cancelled native login.
type SdkRejection struct {
	Provider string
	Data     map[string]interface{}
}

func (e *SdkRejection) Error() string {
	return e.Provider + " SDK rejected the login"
}
