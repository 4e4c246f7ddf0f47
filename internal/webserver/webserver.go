package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/y0ug/socialflow/internal/store"
	"github.com/y0ug/socialflow/pkg/flow"
)

// popupClosePage is served to the popup once its code is relayed; it
// mirrors the popup's self-close after writing the relay key.
const popupClosePage = `<!DOCTYPE html>
<html><head><title>Login</title></head>
<body><script>window.close();</script></body></html>`

// WebServer holds the data needed for handling HTTP requests.
type WebServer struct {
	Engine *flow.Engine
	Relay  flow.CodeRelay
	Store  store.Store
	config *WebserverConfig
	Logger *logrus.Logger
}

// NewWebServer initializes a new WebServer.
func NewWebServer(engine *flow.Engine, relay flow.CodeRelay, st store.Store, config *WebserverConfig, logger *logrus.Logger) *WebServer {
	return &WebServer{
		Engine: engine,
		Relay:  relay,
		Store:  st,
		config: config,
		Logger: logger,
	}
}

// StartWebServer starts the HTTP server.
func StartWebServer(ctx context.Context, ws *WebServer) (*http.Server, error) {
	router := ws.InitRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   ws.config.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		Debug:            false,
	}
	handler := cors.New(corsOptions).Handler(router)

	server := &http.Server{
		Addr:    ws.config.ListenTo,
		Handler: handler,
	}

	go func() {
		ws.Logger.Infof("Server starting on %s", ws.config.ListenTo)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.Logger.Errorf("ListenAndServe(): %v", err)
		}
	}()

	return server, nil
}

// InitRouter initializes the HTTP routes.
func (ws *WebServer) InitRouter() *mux.Router {
	r := mux.NewRouter()
	authRouter := r.PathPrefix("/auth").Subrouter()

	authRouter.HandleFunc("/providers", ws.handleProviders).Methods("GET")
	authRouter.HandleFunc("/login/{provider}", ws.handleLogin).Methods("GET")
	authRouter.HandleFunc("/callback/{provider}", ws.handleCallback).Methods("GET")
	authRouter.HandleFunc("/sdk/{provider}", ws.handleSdkCallback).Methods("POST")
	authRouter.HandleFunc("/result/{provider}", ws.handleResult).Methods("GET")
	authRouter.HandleFunc("/results", ws.handleResults).Methods("GET")

	r.HandleFunc("/proxy", ws.handleProxy).Methods("GET", "POST")

	return r
}

// providerInfo is the public shape of a configured provider.
type providerInfo struct {
	Name string        `json:"name"`
	Flow flow.FlowKind `json:"flow"`
}

// handleProviders lists the configured providers.
func (ws *WebServer) handleProviders(w http.ResponseWriter, r *http.Request) {
	var infos []providerInfo
	for _, p := range ws.Engine.Providers() {
		infos = append(infos, providerInfo{Name: p.Name, Flow: p.Flow})
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleLogin starts a popup flow and redirects the popup window to the
// provider's authorize URL. The relay listener is already armed by the
// time the redirect is issued.
func (ws *WebServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]

	if ctrl, ok := ws.Engine.Sdk(provider); ok {
		// SDK providers have no authorize URL; the vendor script runs
		// in the page and posts its callback to /auth/sdk/{provider}.
		p := ctrl.Config()
		writeJSON(w, http.StatusAccepted, map[string]string{
			"flow":       string(flow.FlowSDK),
			"script_id":  p.ScriptID,
			"script_url": p.ScriptURL,
		})
		return
	}

	// The flow outlives this request; its lifetime is not bound to the
	// popup's initial navigation.
	authorizeURL, err := ws.Engine.Login(context.Background(), provider)
	if errors.Is(err, flow.ErrLoginInProgress) {
		writeError(w, "login already in progress", http.StatusConflict)
		return
	}
	if errors.Is(err, flow.ErrUnknownProvider) {
		writeError(w, "unknown provider", http.StatusNotFound)
		return
	}
	if err != nil {
		ws.Logger.WithError(err).WithField("provider", provider).Error("Login failed to start")
		writeError(w, "failed to start login", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authorizeURL, http.StatusTemporaryRedirect)
}

// handleCallback is the popup execution context: the provider redirected
// here with code and state. A code whose state carries this provider's
// suffix is written to the relay and the popup closes itself. Anything
// else is left alone.
func (ws *WebServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if code == "" || !flow.StateMatchesProvider(state, provider) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, "<!DOCTYPE html><html><body></body></html>")
		return
	}

	if err := ws.Relay.Publish(r.Context(), provider, code); err != nil {
		ws.Logger.WithError(err).WithField("provider", provider).Error("Failed to publish relay code")
		writeError(w, "failed to relay code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, popupClosePage)
}

// handleSdkCallback ingests a vendor SDK's native callback payload
// posted by the page hosting the script.
func (ws *WebServer) handleSdkCallback(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	ctrl, ok := ws.Engine.Sdk(provider)
	if !ok {
		writeError(w, "unknown provider", http.StatusNotFound)
		return
	}

	raw := make(map[string]interface{})
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := ctrl.Complete(r.Context(), raw); err != nil {
		writeError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleResult returns the latest stored login for a provider.
func (ws *WebServer) handleResult(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	record, err := ws.Store.GetLogin(r.Context(), provider)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "no login for provider", http.StatusNotFound)
		return
	}
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to load login record")
		writeError(w, "failed to load login", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleResults returns the latest stored login of every provider.
func (ws *WebServer) handleResults(w http.ResponseWriter, r *http.Request) {
	records, err := ws.Store.ListLogins(r.Context())
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to list login records")
		writeError(w, "failed to list logins", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleProxy is the egress proxy: it forwards a request to the target
// named in the url query parameter, working around the providers'
// cross-origin restrictions for browser callers.
func (ws *WebServer) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		// corsproxy style: everything after "?" is the target.
		target = r.URL.RawQuery
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "https" {
		writeError(w, "invalid proxy target", http.StatusBadRequest)
		return
	}
	if !ws.config.ProxyTargetAllowed(parsed.Host) {
		writeError(w, "proxy target not allowed", http.StatusForbidden)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, parsed.String(), r.Body)
	if err != nil {
		writeError(w, "failed to build proxy request", http.StatusInternalServerError)
		return
	}
	for _, header := range []string{"Authorization", "Content-Type", "Accept"} {
		if v := r.Header.Get(header); v != "" {
			req.Header.Set(header, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ws.Logger.WithError(err).WithField("target", parsed.Host).Error("Proxy request failed")
		writeError(w, "proxy request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}
