// Package server exposes the asset library, history and render pipeline
// over HTTP for the web editor.
//
// Every /api response is a JSON envelope: {"success": true, "data": ...}
// on success and {"success": false, "error": "..."} on failure. Errors map
// to status codes by their pkg/errors code (NOT_FOUND is 404, INVALID_*
// is 400, everything else is 500).
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/catxpapa/catxframeup/pkg/assets"
	"github.com/catxpapa/catxframeup/pkg/history"
	"github.com/catxpapa/catxframeup/pkg/pipeline"
)

// Defaults for Config.
const (
	DefaultAddr = ":3000"

	// MaxJSONBody caps JSON request bodies; saved works carry a base64 PNG.
	MaxJSONBody = 50 << 20

	shutdownTimeout = 10 * time.Second
)

// Config holds listener settings.
type Config struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Server wires the HTTP API to its backends.
type Server struct {
	Source  assets.Source
	Writer  assets.Writer // nil disables uploads
	History history.Store
	Runner  *pipeline.Runner
	Logger  *log.Logger
	Config  Config
}

// New returns a Server. A nil logger discards output.
func New(src assets.Source, w assets.Writer, hist history.Store, runner *pipeline.Runner, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"https://*", "http://*"}
	}
	return &Server{Source: src, Writer: w, History: hist, Runner: runner, Logger: logger, Config: cfg}
}

// forgetter returns the render loader when it can drop cached refs.
func (s *Server) forgetter() forgetter {
	if s.Runner == nil {
		return nil
	}
	f, _ := s.Runner.Loader.(forgetter)
	return f
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.Logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}),
		NoColor: true,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Origin", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/frames", HandleListFrames(s.Source))
		r.Get("/decorations", HandleListDecorations(s.Source))
		r.Get("/uploads", HandleListUploads(s.Writer))
		r.Route("/history", func(r chi.Router) {
			r.Get("/", HandleListHistory(s.History))
			r.Get("/{id}", HandleGetHistory(s.History))
		})
		r.Post("/upload/{kind}", HandleUpload(s.Source, s.Writer, s.Logger))
		r.With(limitBody(MaxJSONBody)).Post("/save/history", HandleSaveHistory(s.History, s.Logger))
		r.With(limitBody(MaxJSONBody)).Post("/render", HandleRender(s.Runner))
		r.Delete("/clear/{target}", HandleClear(s.Writer, s.History, s.forgetter(), s.Logger))
		r.Post("/reset/assets", HandleResetAssets())
	})
	r.Get("/assets/*", HandleAsset(s.Source))
	r.Get("/history/{file}", HandleHistoryFile(s.History))

	return r
}

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("Listening", "addr", s.Config.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.Logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
