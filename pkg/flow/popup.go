package flow

import (
	"context"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Opener opens the provider authorization window. The webserver path
// skips it and redirects the popup itself; CLI embeddings plug in a
// browser opener.
type Opener interface {
	Open(authorizeURL string, features PopupFeatures) error
}

// PopupFeatures is the fixed geometry of the authorization window,
// centered on screen by the opener.
type PopupFeatures struct {
	Name   string
	Width  int
	Height int
}

func popupFeatures(provider string) PopupFeatures {
	name := provider
	if name != "" {
		r, size := utf8.DecodeRuneInString(name)
		name = string(unicode.ToUpper(r)) + name[size:]
	}
	return PopupFeatures{Name: name, Width: 450, Height: 730}
}

// PopupFlowController drives the authorization-code popup flow for one
// provider: open the popup, wait on the relay, exchange the code,
// optionally fetch the profile, resolve or reject.
type PopupFlowController struct {
	provider  *ProviderConfig
	relay     CodeRelay
	exchanger *TokenExchangeClient
	profiles  *ProfileFetcher
	opener    Opener
	callbacks Callbacks
	logger    *logrus.Logger
	guard     *sessionGuard

	// awaitTimeout bounds the AwaitingRedirect wait. Zero keeps the
	// historical behavior: a popup closed before redirecting strands
	// the session and no callback ever fires.
	awaitTimeout time.Duration
}

// NewPopupFlowController initializes a controller for one provider.
// opener may be nil when the caller opens the popup from the URL
// returned by Login.
func NewPopupFlowController(p *ProviderConfig, relay CodeRelay, exchanger *TokenExchangeClient, profiles *ProfileFetcher, opener Opener, callbacks Callbacks, logger *logrus.Logger) *PopupFlowController {
	if logger == nil {
		logger = logrus.New()
	}
	return &PopupFlowController{
		provider:  p,
		relay:     relay,
		exchanger: exchanger,
		profiles:  profiles,
		opener:    opener,
		callbacks: callbacks,
		logger:    logger,
		guard:     newSessionGuard(p.Name),
	}
}

// SetAwaitTimeout enables the bounded wait for the popup redirect.
func (c *PopupFlowController) SetAwaitTimeout(d time.Duration) {
	c.awaitTimeout = d
}

// Provider returns the controller's provider configuration.
func (c *PopupFlowController) Provider() *ProviderConfig {
	return c.provider
}

// Session returns a copy of the current flow session.
func (c *PopupFlowController) Session() FlowSession {
	return c.guard.current()
}

// Login starts a new popup flow and returns the authorize URL. The
// relay listener is armed before the popup is opened so the redirect
// can never outrun it. While a session is awaiting its redirect or
// exchanging, further calls are a no-op and return ErrLoginInProgress.
func (c *PopupFlowController) Login(ctx context.Context) (string, error) {
	state := StateForProvider(c.provider.Name)
	if !c.guard.begin(state) {
		c.logger.WithField("provider", c.provider.Name).Debug("Login ignored, session already live")
		return "", ErrLoginInProgress
	}

	c.callbacks.loginStart()

	codes, cancel, err := c.relay.Subscribe(ctx, c.provider.Name)
	if err != nil {
		c.guard.finish(StatusRejected)
		c.callbacks.reject(err)
		return "", err
	}

	authorizeURL := c.authorizeURL(state)
	if c.opener != nil {
		if err := c.opener.Open(authorizeURL, popupFeatures(c.provider.Name)); err != nil {
			cancel()
			c.guard.finish(StatusRejected)
			c.callbacks.reject(err)
			return "", err
		}
	}

	c.logger.WithFields(logrus.Fields{
		"provider": c.provider.Name,
		"state":    state,
	}).Debug("Popup flow started")

	go c.await(codes, cancel)
	return authorizeURL, nil
}

// authorizeURL builds the provider authorize URL from the immutable
// config plus the per-session csrf state.
func (c *PopupFlowController) authorizeURL(state string) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(c.provider.AuthParams)+2)
	for key, value := range c.provider.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(key, value))
	}
	if c.provider.CodeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", c.provider.CodeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", c.provider.CodeChallengeMethod),
		)
	}
	return c.provider.OAuth2Config.AuthCodeURL(state, opts...)
}

// await consumes the one-shot relay subscription. Without a timeout it
// blocks until the popup delivers a code; the subscription is released
// either way.
func (c *PopupFlowController) await(codes <-chan string, cancel func()) {
	defer cancel()

	if c.awaitTimeout > 0 {
		select {
		case code, ok := <-codes:
			if ok {
				c.handleRelay(CodeMessage{Provider: c.provider.Name, Type: "code", Code: code})
			}
		case <-time.After(c.awaitTimeout):
			if c.guard.transition(StatusAwaitingRedirect, StatusRejected) {
				c.logger.WithField("provider", c.provider.Name).Warn("Popup flow abandoned")
				c.callbacks.reject(ErrAbandoned)
			}
		}
		return
	}

	code, ok := <-codes
	if !ok {
		return
	}
	c.handleRelay(CodeMessage{Provider: c.provider.Name, Type: "code", Code: code})
}

// handleRelay processes one relay delivery. Messages that are not a
// code for this provider are dropped; so are deliveries that race a
// finished session.
func (c *PopupFlowController) handleRelay(msg CodeMessage) {
	if msg.Type != "code" || msg.Provider != c.provider.Name || msg.Code == "" {
		return
	}
	if !c.guard.transition(StatusAwaitingRedirect, StatusExchanging) {
		return
	}

	// No cancellation API exists for an in-flight flow.
	ctx := context.Background()

	if c.provider.IsOnlyGetCode {
		c.guard.finish(StatusResolved)
		c.callbacks.resolve(normalizeResult(c.provider.Name, map[string]interface{}{"code": msg.Code}))
		return
	}

	token, err := c.exchanger.Exchange(ctx, msg.Code, c.provider)
	if err != nil {
		c.logger.WithError(err).WithField("provider", c.provider.Name).Error("Token exchange failed")
		c.guard.finish(StatusRejected)
		c.callbacks.reject(err)
		return
	}

	if c.provider.IsOnlyGetToken {
		c.guard.finish(StatusResolved)
		c.callbacks.resolve(normalizeResult(c.provider.Name, token.Raw))
		return
	}

	profile, err := c.profiles.Fetch(ctx, token, c.provider)
	if err != nil {
		c.logger.WithError(err).WithField("provider", c.provider.Name).Error("Profile fetch failed")
		c.guard.finish(StatusRejected)
		c.callbacks.reject(err)
		return
	}

	// Token fields take precedence over same-named profile fields.
	data := mergeData(profile, token.Raw)
	c.guard.finish(StatusResolved)
	c.callbacks.resolve(normalizeResult(c.provider.Name, data))
}
