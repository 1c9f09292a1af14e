// Package dev implements the development server: static serving of the
// project source with live reload, a polling file watcher, and request
// metrics and traces.
package dev

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/seriva/microtastic/internal/build"
	"github.com/seriva/microtastic/internal/config"
	"github.com/seriva/microtastic/internal/errors"
)

const tracerName = "microtastic/dev"

// Options configures the dev server.
type Options struct {
	// Rebuild, if set, runs on every debounced change batch before the
	// browsers are told to reload. A returned error shows up in the
	// browser overlay instead of triggering a reload.
	Rebuild func(ctx context.Context) error

	// Registry receives the server metrics. Nil uses the default.
	Registry prometheus.Registerer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves the project source with live reload.
type Server struct {
	config  *config.Config
	options Options
	logger  *slog.Logger
	metrics *Metrics
	reload  *ReloadServer
	watcher *Watcher
	httpSrv *http.Server
}

// NewServer creates a dev server for the given project.
func NewServer(cfg *config.Config, options Options) *Server {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		options: options,
		logger:  logger,
		metrics: NewMetrics(options.Registry),
	}
	s.reload = NewReloadServer(func(n int) {
		s.metrics.ReloadClients.Set(float64(n))
	})

	watchPaths := []string{cfg.SrcDir()}
	for _, extra := range cfg.Dev.Watch {
		watchPaths = append(watchPaths, filepath.Join(cfg.Dir(), extra))
	}
	s.watcher = NewWatcher(WatcherConfig{
		Paths:    watchPaths,
		Debounce: time.Duration(cfg.Dev.DebounceMs) * time.Millisecond,
	})
	s.watcher.OnChange(s.handleChanges)

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Dev.Host, s.config.Dev.Port)
}

// Start runs the server and the watcher until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return errors.New("E140").Wrap(err)
	}

	s.httpSrv = &http.Server{Handler: s.router()}

	go func() {
		if err := s.watcher.Start(ctx); err != nil && err != context.Canceled {
			s.logger.Error("watcher stopped", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		s.httpSrv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dev server listening", "addr", "http://"+s.Addr())
	if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return errors.New("E140").Wrap(err)
	}
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	s.watcher.Stop()
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.traceMiddleware)
	r.Use(s.observeMiddleware)

	r.Get("/__reload", s.reload.HandleWebSocket)
	r.Get("/__reload.js", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(reloadScript))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(s.serveFile)

	return r
}

// traceMiddleware opens a span per request on the global tracer provider.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, span := tracer.Start(req.Context(), req.Method+" "+req.URL.Path)
		defer span.End()

		ww := chimw.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.target", req.URL.Path),
			attribute.Int("http.status_code", ww.Status()),
		)
		if ww.Status() >= 500 {
			span.SetStatus(codes.Error, http.StatusText(ww.Status()))
		}
	})
}

// observeMiddleware feeds the request log and counter.
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RequestsTotal.WithLabelValues(statusClass(status)).Inc()
		s.logger.Debug("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"dur", time.Since(start))
	})
}

// serveFile serves project files. HTML pages get the reload script and the
// dependency import map injected.
func (s *Server) serveFile(w http.ResponseWriter, req *http.Request) {
	rel := strings.TrimPrefix(req.URL.Path, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}

	srcDir := s.config.SrcDir()
	full := filepath.Join(srcDir, filepath.FromSlash(rel))
	if full != srcDir && !strings.HasPrefix(full, srcDir+string(os.PathSeparator)) {
		http.NotFound(w, req)
		return
	}

	if strings.EqualFold(filepath.Ext(full), ".html") {
		s.serveHTML(w, req, full)
		return
	}
	http.ServeFile(w, req, full)
}

func (s *Server) serveHTML(w http.ResponseWriter, req *http.Request, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, req)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	html := string(data)
	var inject strings.Builder
	if im := build.ImportMap(s.config.Deps); im != "" {
		inject.WriteString(im)
		inject.WriteString("\n")
	}
	inject.WriteString(`<script src="/__reload.js"></script>` + "\n")
	html = injectBeforeHeadClose(html, inject.String())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(html))
}

// handleChanges runs the rebuild hook and pushes reload or error overlay
// messages to connected browsers.
func (s *Server) handleChanges(paths []string) {
	s.logger.Info("change detected", "files", len(paths), "first", filepath.Base(paths[0]))

	if s.options.Rebuild != nil {
		start := time.Now()
		err := s.options.Rebuild(context.Background())
		s.metrics.RebuildDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.RebuildsTotal.WithLabelValues("error").Inc()
			s.logger.Error("rebuild failed", "err", err)
			s.reload.NotifyError(err.Error())
			return
		}
		s.metrics.RebuildsTotal.WithLabelValues("ok").Inc()
	}

	s.reload.ClearError()
	s.reload.NotifyReload()
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

func injectBeforeHeadClose(html, snippet string) string {
	if i := strings.Index(html, "</head>"); i >= 0 {
		return html[:i] + snippet + html[i:]
	}
	return snippet + html
}
