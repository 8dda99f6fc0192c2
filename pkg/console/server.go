package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Snider/Preloader/pkg/blob"
	"github.com/Snider/Preloader/pkg/preload"
)

// Entry describes one served handle in the /handles index.
type Entry struct {
	URL         string `json:"url"`
	Handle      string `json:"handle"`
	Local       string `json:"local"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
}

// Server serves preloaded media from a handle store over HTTP, so a handle
// can be resolved without going back to the origin.
type Server struct {
	store *blob.Store
	bind  string

	mu      sync.RWMutex
	handles preload.HandleMap
	ln      net.Listener
	base    string
}

// NewServer creates a server for store. bind is a host:port listen address;
// a port of 0 picks a free one.
func NewServer(store *blob.Store, handles preload.HandleMap, bind string) *Server {
	return &Server{
		store:   store,
		bind:    bind,
		handles: handles.Clone(),
	}
}

// Handler returns the server's routes:
//
//	/blob/<id>  the stored bytes, with their content type
//	/handles    a JSON index of original URL to local URL
//	/           redirects to /handles
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/blob/", http.StripPrefix("/blob/", s.blobHandler()))
	mux.HandleFunc("/handles", s.handleIndex)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/handles", http.StatusSeeOther)
	})
	return mux
}

// blobHandler serves the store with http.FileServer, setting the recorded
// content type first so the file server does not sniff it. Only live
// handles are served; the root listing is not.
func (s *Server) blobHandler() http.Handler {
	files := http.FileServer(http.FS(s.store))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := blob.Handle(blob.Scheme + strings.TrimPrefix(r.URL.Path, "/"))
		if h.ID() == "" || !s.store.Has(h) {
			http.NotFound(w, r)
			return
		}
		if ct := s.store.ContentType(h); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		files.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(s.Entries(baseFromRequest(r)))
}

func baseFromRequest(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// Entries lists every live handle, sorted by original URL, with local URLs
// rooted at base.
func (s *Server) Entries(base string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.handles))
	for u, h := range s.handles {
		data, ok := s.store.Bytes(h)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			URL:         u,
			Handle:      string(h),
			Local:       localURL(base, h),
			ContentType: s.store.ContentType(h),
			Size:        len(data),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })
	return entries
}

func localURL(base string, h blob.Handle) string {
	return strings.TrimSuffix(base, "/") + "/blob/" + h.ID()
}

// Listen binds the server's address. It is called by Serve when needed and
// may be called first to learn the URL before serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.bind, err)
	}
	s.ln = ln
	s.base = "http://" + ln.Addr().String()
	return nil
}

// Serve listens if necessary and serves until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.RLock()
	ln := s.ln
	s.mu.RUnlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// BaseURL returns the server's root URL, or "" before Listen.
func (s *Server) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

// URL returns the loopback URL a handle is served at, or "" before Listen.
func (s *Server) URL(h blob.Handle) string {
	base := s.BaseURL()
	if base == "" {
		return ""
	}
	return localURL(base, h)
}
