// Package serve runs the long-lived preview/publishing mode: serve the
// generated site over HTTP, rebuild on content changes, and fan build
// outcomes out to live-reload clients, metrics, history, and NATS.
package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// Server is the serve-mode composition root.
type Server struct {
	cfg       *config.Config
	gen       *site.Generator
	hub       *LiveReloadHub
	recorder  metrics.Recorder
	prom      *metrics.PrometheusRecorder
	history   *history.Store
	publisher *notify.Publisher

	httpServer *http.Server
	rebuildReq chan struct{}
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithHistory attaches a build history store.
func WithHistory(h *history.Store) Option {
	return func(s *Server) { s.history = h }
}

// WithPublisher attaches a NATS build-event publisher.
func WithPublisher(p *notify.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithPrometheus attaches a Prometheus recorder and enables /metrics.
func WithPrometheus(pr *metrics.PrometheusRecorder) Option {
	return func(s *Server) {
		s.prom = pr
		s.recorder = pr
	}
}

// NewServer creates the serve-mode server around an existing generator.
func NewServer(cfg *config.Config, gen *site.Generator, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		gen:        gen,
		recorder:   metrics.NoopRecorder{},
		rebuildReq: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewLiveReloadHub(s.recorder)
	return s
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintln(w, `{"status":"ok"}`)
	})

	if s.prom != nil && s.cfg.Serve.Metrics {
		mux.Handle("/metrics", s.prom.Handler())
	}

	if s.history != nil {
		mux.HandleFunc("/api/builds", s.handleBuilds)
	}
	if s.publisher != nil {
		mux.HandleFunc("/api/last-report", s.handleLastReport)
	}

	var siteHandler http.Handler = http.FileServer(http.Dir(s.gen.OutputDir()))
	if s.cfg.Serve.LiveReload {
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			_, _ = w.Write([]byte(liveReloadScript))
		})
		siteHandler = injectLiveReloadScript(siteHandler)
	}
	mux.Handle("/", siteHandler)

	return mux
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.RecentBuilds(r.Context(), 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Warn("Failed to encode build history", logfields.Error(err))
	}
}

func (s *Server) handleLastReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.publisher.LastReport(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "no report stored", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(report)
}

// injectLiveReloadScript buffers HTML responses and appends the live-reload
// client script before </body>. Non-HTML responses and oversized pages pass
// through untouched.
func injectLiveReloadScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		isHTMLPage := path == "/" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html")
		if !isHTMLPage {
			next.ServeHTTP(w, r)
			return
		}

		injector := &scriptInjector{ResponseWriter: w, statusCode: http.StatusOK, maxSize: 512 * 1024}
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

// scriptInjector wraps a ResponseWriter, buffering HTML so the script tag can
// be inserted before the closing body tag.
type scriptInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	maxSize       int
}

func (s *scriptInjector) WriteHeader(code int) {
	s.statusCode = code
	if s.passthrough {
		s.ResponseWriter.WriteHeader(code)
		s.headerWritten = true
	}
}

func (s *scriptInjector) Write(data []byte) (int, error) {
	if !s.headerWritten && !s.passthrough && s.buffer == nil {
		contentType := s.ResponseWriter.Header().Get("Content-Type")
		isHTML := contentType == "" || strings.Contains(contentType, "text/html")
		if !isHTML {
			s.passthrough = true
			s.ResponseWriter.WriteHeader(s.statusCode)
			s.headerWritten = true
			return s.ResponseWriter.Write(data)
		}
		s.buffer = make([]byte, 0, 64*1024)
	}

	if s.passthrough {
		return s.ResponseWriter.Write(data)
	}

	if len(s.buffer)+len(data) > s.maxSize {
		s.passthrough = true
		s.ResponseWriter.Header().Del("Content-Length")
		s.ResponseWriter.WriteHeader(s.statusCode)
		s.headerWritten = true
		if len(s.buffer) > 0 {
			if _, err := s.ResponseWriter.Write(s.buffer); err != nil {
				return 0, err
			}
		}
		return s.ResponseWriter.Write(data)
	}

	s.buffer = append(s.buffer, data...)
	return len(data), nil
}

func (s *scriptInjector) finalize() {
	if s.passthrough || len(s.buffer) == 0 {
		if !s.headerWritten {
			s.ResponseWriter.WriteHeader(s.statusCode)
		}
		return
	}

	html := string(s.buffer)
	const tag = `<script async src="/livereload.js"></script></body>`
	modified := strings.Replace(html, "</body>", tag, 1)

	s.ResponseWriter.Header().Del("Content-Length")
	s.ResponseWriter.WriteHeader(s.statusCode)
	_, _ = s.ResponseWriter.Write([]byte(modified))
}

// shutdownHTTP stops the HTTP server with a bounded grace period.
func (s *Server) shutdownHTTP() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
}
