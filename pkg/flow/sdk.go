package flow

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// NativeClient performs the vendor SDK's own login prompt and delivers
// the raw authentication object from its callback. A user cancellation
// or native error comes back as a *SdkRejection.
type NativeClient interface {
	RequestLogin(ctx context.Context) (map[string]interface{}, error)
}

// SdkAdapter is the capability a script-based provider plugs into the
// SDK flow: one-time initialization, the native login entry point, and
// the secondary API call for extended profile data.
type SdkAdapter interface {
	Config() *ProviderConfig
	Init(ctx context.Context) error
	Login(ctx context.Context) (map[string]interface{}, error)
	FetchProfile(ctx context.Context, raw map[string]interface{}) (map[string]interface{}, error)
}

// SdkFlowController wraps SDK-based login for providers that ship a
// first-party script instead of a redirect. The vendor script is loaded
// exactly once through the ScriptRegistry, then the adapter drives the
// SDK.
type SdkFlowController struct {
	adapter   SdkAdapter
	registry  *ScriptRegistry
	callbacks Callbacks
	logger    *logrus.Logger

	mu      sync.Mutex
	ready   bool
	loading bool
}

// NewSdkFlowController initializes the controller and kicks off the
// initial script load in the background.
func NewSdkFlowController(adapter SdkAdapter, registry *ScriptRegistry, callbacks Callbacks, logger *logrus.Logger) *SdkFlowController {
	if logger == nil {
		logger = logrus.New()
	}
	c := &SdkFlowController{
		adapter:   adapter,
		registry:  registry,
		callbacks: callbacks,
		logger:    logger,
	}
	go c.load(context.Background())
	return c
}

// Config returns the adapter's provider configuration.
func (c *SdkFlowController) Config() *ProviderConfig {
	return c.adapter.Config()
}

// Ready reports whether the SDK finished loading and initializing.
func (c *SdkFlowController) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// load ensures the vendor script is registered and the adapter
// initialized. A failed load leaves the controller not ready so a later
// call retries.
func (c *SdkFlowController) load(ctx context.Context) error {
	c.mu.Lock()
	if c.ready || c.loading {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	p := c.adapter.Config()
	if err := <-c.registry.EnsureLoaded(ctx, p.ScriptID, p.ScriptURL); err != nil {
		return err
	}
	if err := c.adapter.Init(ctx); err != nil {
		c.logger.WithError(err).WithField("provider", p.Name).Error("SDK init failed")
		return err
	}

	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	c.logger.WithField("provider", p.Name).Debug("SDK ready")
	return nil
}

// Login invokes the SDK's native login entry point. Before the SDK is
// ready it rejects with ErrSDKNotReady and triggers a background
// (re)load.
func (c *SdkFlowController) Login(ctx context.Context) error {
	if !c.Ready() {
		go c.load(context.Background())
		c.callbacks.reject(ErrSDKNotReady)
		return ErrSDKNotReady
	}

	c.callbacks.loginStart()

	raw, err := c.adapter.Login(ctx)
	if err != nil {
		c.logger.WithError(err).WithField("provider", c.adapter.Config().Name).Warn("SDK login rejected")
		c.callbacks.reject(err)
		return err
	}
	return c.Complete(ctx, raw)
}

// Complete finishes the flow from the raw object the SDK callback
// delivered. It is the ingress for native callbacks arriving out of
// band (e.g. posted by the page that hosts the vendor script).
func (c *SdkFlowController) Complete(ctx context.Context, raw map[string]interface{}) error {
	p := c.adapter.Config()

	if p.IsOnlyGetToken {
		c.callbacks.resolve(normalizeResult(p.Name, raw))
		return nil
	}

	profile, err := c.adapter.FetchProfile(ctx, raw)
	if err != nil {
		c.logger.WithError(err).WithField("provider", p.Name).Error("Extended profile fetch failed")
		c.callbacks.reject(err)
		return err
	}

	// Raw-object fields override extended profile fields on collision.
	data := mergeData(profile, raw)
	c.callbacks.resolve(normalizeResult(p.Name, data))
	return nil
}
