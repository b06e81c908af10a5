// Package preview serves the site locally, rebuilding on content changes
// and pushing a reload signal to connected browsers.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mheir/blogsmith/internal/build"
	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/logfields"
	"github.com/mheir/blogsmith/internal/metrics"
)

const rebuildDebounce = 500 * time.Millisecond

// Server rebuilds and serves the preview site.
type Server struct {
	cfg        *config.Config
	configPath string
	builder    *build.Builder
	metrics    *metrics.PrometheusRecorder

	mu      sync.Mutex
	clients map[chan string]struct{}
}

// NewServer creates a preview server for the given configuration.
// configPath may be empty when the config did not come from a file. Preview
// builds are never minified and include drafts; live reload follows the
// preview configuration.
func NewServer(cfg *config.Config, configPath string) *Server {
	var rec *metrics.PrometheusRecorder
	opts := []build.BuilderOption{
		build.WithDrafts(true),
		build.WithLiveReload(cfg.Preview.LiveReloadEnabled()),
	}
	if cfg.Preview.Metrics {
		rec = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, build.WithRecorder(rec))
	}
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		builder:    build.NewBuilder(cfg, opts...),
		metrics:    rec,
		clients:    make(map[chan string]struct{}),
	}
}

// Run builds the site, then serves it until ctx is canceled. Rebuilds are
// triggered by content changes; a failed rebuild keeps the previous output.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.builder.Run(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()
	if err := s.watchPaths(watcher); err != nil {
		return err
	}
	go s.watchLoop(ctx, watcher)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.Handle("/", noCache(http.FileServer(http.Dir(s.cfg.Output.Directory))))

	addr := net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", s.cfg.Preview.Port))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Preview server listening", logfields.URL("http://"+addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// watchPaths registers the content tree, the theme checkout (when local)
// and the static directory with the watcher.
func (s *Server) watchPaths(watcher *fsnotify.Watcher) error {
	roots := []string{s.cfg.Content.Directory}
	if s.cfg.Theme.Path != "" {
		roots = append(roots, s.cfg.Theme.Path)
	}
	if s.cfg.Content.StaticDirectory != "" {
		roots = append(roots, s.cfg.Content.StaticDirectory)
	}
	if s.configPath != "" {
		// Watching the directory survives editors that replace the file.
		if err := watcher.Add(filepath.Dir(s.configPath)); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
	}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}
	return nil
}

// watchLoop debounces file events into rebuilds.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if s.configPath != "" && filepath.Dir(event.Name) == filepath.Dir(s.configPath) {
				if filepath.Base(event.Name) == filepath.Base(s.configPath) {
					slog.Warn("Configuration changed; restart serve to apply", logfields.Path(event.Name))
				}
				continue
			}
			// New directories need watching for events beneath them.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rebuildDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		case <-rebuild:
			s.rebuild(ctx)
		}
	}
}

func (s *Server) rebuild(ctx context.Context) {
	if _, err := s.builder.Run(ctx); err != nil {
		// Keep serving the last good tree.
		slog.Error("Rebuild failed", logfields.Error(err))
		return
	}
	s.broadcast("reload")
}

// handleEvents is the SSE endpoint the live reload script connects to.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 4)
	s.addClient(ch)
	defer s.removeClient(ch)

	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) addClient(ch chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[ch] = struct{}{}
}

func (s *Server) removeClient(ch chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, ch)
}

func (s *Server) broadcast(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// noCache disables browser caching so edits show up on plain refresh too.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
