package flow

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
)

// Engine is the caller-facing registry of flow controllers, one per
// configured provider.
type Engine struct {
	popups map[string]*PopupFlowController
	sdks   map[string]*SdkFlowController
	logger *logrus.Logger
}

// NewEngine initializes an empty engine.
func NewEngine(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		popups: make(map[string]*PopupFlowController),
		sdks:   make(map[string]*SdkFlowController),
		logger: logger,
	}
}

// RegisterPopup adds a popup flow controller.
func (e *Engine) RegisterPopup(c *PopupFlowController) {
	e.popups[c.Provider().Name] = c
}

// RegisterSdk adds an SDK flow controller.
func (e *Engine) RegisterSdk(c *SdkFlowController) {
	e.sdks[c.adapter.Config().Name] = c
}

// Popup returns the popup controller for a provider.
func (e *Engine) Popup(provider string) (*PopupFlowController, bool) {
	c, ok := e.popups[provider]
	return c, ok
}

// Sdk returns the SDK controller for a provider.
func (e *Engine) Sdk(provider string) (*SdkFlowController, bool) {
	c, ok := e.sdks[provider]
	return c, ok
}

// Providers lists the registered provider configurations, sorted by
// name.
func (e *Engine) Providers() []*ProviderConfig {
	configs := make([]*ProviderConfig, 0, len(e.popups)+len(e.sdks))
	for _, c := range e.popups {
		configs = append(configs, c.Provider())
	}
	for _, c := range e.sdks {
		configs = append(configs, c.adapter.Config())
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

// Login triggers the provider's login entry point. Popup providers
// return the authorize URL for the caller to open; SDK providers
// return an empty URL.
func (e *Engine) Login(ctx context.Context, provider string) (string, error) {
	if c, ok := e.popups[provider]; ok {
		return c.Login(ctx)
	}
	if c, ok := e.sdks[provider]; ok {
		return "", c.Login(ctx)
	}
	return "", ErrUnknownProvider
}
