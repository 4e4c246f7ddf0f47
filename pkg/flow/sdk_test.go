package flow

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeAdapter struct {
	config     *ProviderConfig
	initErr    error
	loginRaw   map[string]interface{}
	loginErr   error
	profile    map[string]interface{}
	profileErr error
}

func (a *fakeAdapter) Config() *ProviderConfig { return a.config }

func (a *fakeAdapter) Init(ctx context.Context) error { return a.initErr }

func (a *fakeAdapter) Login(ctx context.Context) (map[string]interface{}, error) {
	return a.loginRaw, a.loginErr
}

func (a *fakeAdapter) FetchProfile(ctx context.Context, raw map[string]interface{}) (map[string]interface{}, error) {
	return a.profile, a.profileErr
}

type blockingLoader struct {
	release chan struct{}
}

func (l *blockingLoader) Load(ctx context.Context, scriptID, scriptURL string) error {
	<-l.release
	return nil
}

func sdkTestProvider() *ProviderConfig {
	return &ProviderConfig{
		Name:      "facebook",
		Flow:      FlowSDK,
		ScriptID:  "facebook-jssdk",
		ScriptURL: "http://localhost/sdk.js",
	}
}

func waitReady(t *testing.T, ctrl *SdkFlowController) {
	deadline := time.Now().Add(2 * time.Second)
	for !ctrl.Ready() {
		if time.Now().After(deadline) {
			t.Fatalf("controller never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSdkLoginNotReady(t *testing.T) {
	loader := &blockingLoader{release: make(chan struct{})}
	defer close(loader.release)
	registry := NewScriptRegistry(loader, nil)

	adapter := &fakeAdapter{config: sdkTestProvider()}
	callbacks, _, rejects := testCallbacks()
	ctrl := NewSdkFlowController(adapter, registry, callbacks, nil)

	if err := ctrl.Login(context.Background()); !errors.Is(err, ErrSDKNotReady) {
		t.Errorf("expected ErrSDKNotReady, got %v", err)
	}
	select {
	case err := <-rejects:
		if !errors.Is(err, ErrSDKNotReady) {
			t.Errorf("expected ErrSDKNotReady rejection, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a rejection for an unloaded SDK")
	}
}

func TestSdkLoginMergesRawOverProfile(t *testing.T) {
	registry := NewScriptRegistry(&countingLoader{}, nil)
	adapter := &fakeAdapter{
		config:   sdkTestProvider(),
		loginRaw: map[string]interface{}{"id": "r1", "accessToken": "tok"},
		profile:  map[string]interface{}{"id": "p1", "email": "octo@example.com"},
	}
	callbacks, results, rejects := testCallbacks()
	ctrl := NewSdkFlowController(adapter, registry, callbacks, nil)
	waitReady(t, ctrl)

	if err := ctrl.Login(context.Background()); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	select {
	case res := <-results:
		if res.Provider != "facebook" {
			t.Errorf("expected provider 'facebook', got '%s'", res.Provider)
		}
		if res.Data["id"] != "r1" {
			t.Errorf("expected raw id to override profile id, got '%v'", res.Data["id"])
		}
		if res.Data["email"] != "octo@example.com" {
			t.Errorf("expected profile email in result, got '%v'", res.Data["email"])
		}
	case err := <-rejects:
		t.Fatalf("unexpected reject: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for resolve")
	}
}

func TestSdkCompleteOnlyGetToken(t *testing.T) {
	registry := NewScriptRegistry(&countingLoader{}, nil)
	p := sdkTestProvider()
	p.IsOnlyGetToken = true
	adapter := &fakeAdapter{
		config:     p,
		profileErr: errors.New("profile must not be fetched"),
	}
	callbacks, results, _ := testCallbacks()
	ctrl := NewSdkFlowController(adapter, registry, callbacks, nil)

	raw := map[string]interface{}{"accessToken": "tok"}
	if err := ctrl.Complete(context.Background(), raw); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	select {
	case res := <-results:
		if res.Data["accessToken"] != "tok" {
			t.Errorf("expected raw object passed through, got %v", res.Data)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for resolve")
	}
}

func TestSdkLoginRejection(t *testing.T) {
	registry := NewScriptRegistry(&countingLoader{}, nil)
	rejection := &SdkRejection{Provider: "facebook", Data: map[string]interface{}{"status": "unknown"}}
	adapter := &fakeAdapter{config: sdkTestProvider(), loginErr: rejection}
	callbacks, _, rejects := testCallbacks()
	ctrl := NewSdkFlowController(adapter, registry, callbacks, nil)
	waitReady(t, ctrl)

	if err := ctrl.Login(context.Background()); err == nil {
		t.Fatalf("expected login to fail")
	}

	select {
	case err := <-rejects:
		var rej *SdkRejection
		if !errors.As(err, &rej) {
			t.Errorf("expected SdkRejection, got %T", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for reject")
	}
}
