package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flipclock/internal/clockface"
	"flipclock/internal/config"
	appLog "flipclock/internal/log"
	"flipclock/internal/model"
	"flipclock/internal/runner"
	"flipclock/internal/screen"
)

// Clock is the part of the runner the HTTP API drives.
type Clock interface {
	State() runner.State
	SetFormat(clockface.DisplayFormat) error
	CycleFormat() clockface.DisplayFormat
	SetDemo(on bool) error
}

// Server provides the HTTP API, previews of the clock and the embedded UI.
type Server struct {
	cfg    *config.Config
	clock  Clock
	frames screen.Source
	screen *screen.Screen // nil when frames are missing
	hub    *Hub
	router *mux.Router

	// Composing a preview touches every asset; cache the last one per
	// visible state.
	previewMu    sync.RWMutex
	previewCache *previewCache
}

type previewCache struct {
	key string
	png []byte
}

//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server. scr may be nil, in which case
// /preview.png reports the preview as unavailable.
func NewServer(cfg *config.Config, clock Clock, frames screen.Source, scr *screen.Screen, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub()
	}
	s := &Server{
		cfg:    cfg,
		clock:  clock,
		frames: frames,
		screen: scr,
		hub:    hub,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Hub returns the websocket hub, to be registered as a runner sink.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="flipclock", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/health", s.handleHealth)
	r.HandleFunc("/api/clock", s.handleClock).Methods(http.MethodGet)
	r.HandleFunc("/api/format", s.handleFormat).Methods(http.MethodPost)
	r.HandleFunc("/api/demo", s.handleDemo).Methods(http.MethodPost)
	r.HandleFunc("/frames/{name}", s.handleFrame).Methods(http.MethodGet)
	r.HandleFunc("/preview.png", s.handlePreview).Methods(http.MethodGet)
	r.Handle("/ws", s.hub)
	r.Handle("/metrics", promhttp.Handler())

	// /api/* that did not match above must not fall through to the UI.
	r.PathPrefix("/api/").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.PathPrefix("/").Handler(s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// formatDTO describes one selectable display format.
type formatDTO struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// clockResponse is the JSON response shape for the /api/* endpoints.
type clockResponse struct {
	runner.State
	FormatLabel string      `json:"format_label"`
	Formats     []formatDTO `json:"formats"`
}

func (s *Server) clockResponse() clockResponse {
	st := s.clock.State()
	resp := clockResponse{State: st}
	for _, f := range clockface.Formats() {
		resp.Formats = append(resp.Formats, formatDTO{Name: f.String(), Label: f.Label()})
		if f.String() == st.Format {
			resp.FormatLabel = f.Label()
		}
	}
	return resp
}

func (s *Server) handleClock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.clockResponse())
}

// handleFormat switches the display format.
//
// POST /api/format {"format":"12h"} selects a format; an empty body cycles to
// the next one, like the top button on the device.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name, _ := body.Path("format").Data().(string)
	if name == "" {
		f := s.clock.CycleFormat()
		appLog.Info("api format cycled", "format", f.String())
		writeJSON(w, http.StatusOK, s.clockResponse())
		return
	}

	f, err := clockface.ParseDisplayFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.clock.SetFormat(f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Info("api format set", "format", f.String())
	writeJSON(w, http.StatusOK, s.clockResponse())
}

// handleDemo turns demo mode on or off.
//
// POST /api/demo {"on":true}; an empty body toggles, like the bottom button.
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	on := !s.clock.State().Demo
	if body.Exists("on") {
		v, ok := body.Path("on").Data().(bool)
		if !ok {
			writeError(w, http.StatusBadRequest, `"on" must be a boolean`)
			return
		}
		on = v
	}
	if err := s.clock.SetDemo(on); err != nil {
		appLog.Error("api demo failed", err, "on", on)
		writeError(w, http.StatusInternalServerError, "failed to switch demo mode")
		return
	}
	writeJSON(w, http.StatusOK, s.clockResponse())
}

// handleFrame serves any generated asset as PNG, whatever format it is
// stored in.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".png")
	if !validAssetName(name) {
		writeError(w, http.StatusNotFound, "unknown frame")
		return
	}

	img, err := s.frames.Image(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "frame not generated")
			return
		}
		appLog.Error("frame load failed", err, "name", name)
		writeError(w, http.StatusInternalServerError, "failed to load frame")
		return
	}
	writePNG(w, img)
}

// handlePreview composes the current clock face into one PNG.
func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	if s.screen == nil {
		writeError(w, http.StatusServiceUnavailable, "preview not available")
		return
	}

	st := s.clock.State()
	key := strings.Join(st.Frames[:], ",") + "," + st.ColonName()

	s.previewMu.RLock()
	pc := s.previewCache
	s.previewMu.RUnlock()
	if pc != nil && pc.key == key {
		writePNGBytes(w, pc.png)
		return
	}

	img, err := s.screen.Compose(st)
	if err != nil {
		appLog.Error("preview compose failed", err, "digits", st.Digits)
		writeError(w, http.StatusInternalServerError, "failed to compose preview")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		appLog.Error("preview encode failed", err)
		writeError(w, http.StatusInternalServerError, "failed to encode preview")
		return
	}

	s.previewMu.Lock()
	s.previewCache = &previewCache{key: key, png: buf.Bytes()}
	s.previewMu.Unlock()

	writePNGBytes(w, buf.Bytes())
}

// staticFileServer serves the embedded UI from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}
	return http.FileServer(http.FS(sub))
}

func validAssetName(name string) bool {
	switch name {
	case model.ColonOff, model.ColonOn, model.TopButton, model.BottomButton, model.Logo:
		return true
	}
	_, err := model.ParseFrameKey(name)
	return err == nil
}

// readBody parses an optional JSON object body. An empty body is an empty
// object.
func readBody(r *http.Request) (*gabs.Container, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return gabs.New(), nil
	}
	return gabs.ParseJSON(data)
}

func writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		appLog.Error("failed to encode PNG", err)
		writeError(w, http.StatusInternalServerError, "failed to encode image")
		return
	}
	writePNGBytes(w, buf.Bytes())
}

func writePNGBytes(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
