package mock

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounceDelay coalesces rapid fixture-file writes into one reload.
const WatchDebounceDelay = 300 * time.Millisecond

// Server serves mock responses over real HTTP from YAML fixture files,
// for exercising code that insists on a live endpoint. Routes reload when a
// watched fixture file changes.
type Server struct {
	addr    string
	delay   time.Duration
	verbose bool

	mu     sync.RWMutex
	routes []*Route
	files  []string
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithDelay adds a delay to all responses.
func WithDelay(delay time.Duration) ServerOption {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithVerbose enables request logging.
func WithVerbose(verbose bool) ServerOption {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// NewServer creates a mock server.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		addr: ":3000",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadFile loads routes from a YAML fixture file and remembers the path for
// reloads.
func (s *Server) LoadFile(path string) error {
	routes, err := LoadRoutes(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, routes...)
	s.files = append(s.files, path)
	return nil
}

// LoadFiles loads routes from multiple fixture files.
func (s *Server) LoadFiles(paths []string) error {
	for _, path := range paths {
		if err := s.LoadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// Routes returns the currently loaded routes.
func (s *Server) Routes() []*Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	routes := make([]*Route, len(s.routes))
	copy(routes, s.routes)
	return routes
}

func (s *Server) reload() {
	s.mu.Lock()
	files := make([]string, len(s.files))
	copy(files, s.files)
	s.mu.Unlock()

	var routes []*Route
	for _, path := range files {
		loaded, err := LoadRoutes(path)
		if err != nil {
			log.Printf("mock: reload %s failed: %v", path, err)
			return
		}
		routes = append(routes, loaded...)
	}

	s.mu.Lock()
	s.routes = routes
	s.mu.Unlock()

	if s.verbose {
		log.Printf("mock: reloaded %d routes from %d files", len(routes), len(files))
	}
}

// ServeHTTP matches the request against the loaded routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.RLock()
	routes := s.routes
	s.mu.RUnlock()

	for _, route := range routes {
		params, ok := route.match(r.Method, r.URL.Path)
		if !ok {
			continue
		}

		stub := route.Response
		if stub == nil {
			continue
		}

		for key, value := range stub.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(stub.StatusCode)
		_, _ = w.Write([]byte(substituteParams(stub.Body, params)))

		if s.verbose {
			log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, stub.StatusCode, time.Since(start))
		}
		return
	}

	if s.verbose {
		log.Printf("%s %s -> 404 Not Found (%s)", r.Method, r.URL.Path, time.Since(start))
	}
	http.NotFound(w, r)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("mock server listening on %s (%d routes)", s.addr, len(s.Routes()))
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Watch reloads fixture files when they change, until ctx is cancelled.
// Writes are debounced so editors that write in bursts trigger one reload.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	s.mu.RLock()
	files := make([]string, len(s.files))
	copy(files, s.files)
	s.mu.RUnlock()

	watched := make(map[string]bool)
	byName := make(map[string]bool)
	for _, file := range files {
		byName[filepath.Clean(file)] = true
		dir := filepath.Dir(file)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return err
			}
			watched[dir] = true
		}
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) && byName[filepath.Clean(event.Name)] {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(WatchDebounceDelay, s.reload)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("mock: watch error: %v", err)
		}
	}
}
