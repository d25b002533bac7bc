package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/anisan-cli/anistream/constant"
	"github.com/anisan-cli/anistream/hls"
	"github.com/anisan-cli/anistream/log"
	"github.com/anisan-cli/anistream/network"
)

// forwarded are the client request headers passed upstream on stream requests.
var forwarded = []string{"Range", "If-Range", "If-None-Match", "If-Modified-Since"}

// copied are the upstream response headers passed back to the client.
var copied = []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges", "ETag", "Last-Modified", "Cache-Control"}

// Server is the embedded gateway.
type Server struct {
	doer     network.Doer
	rps      float64
	burst    int
	internal *http.Server
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit caps accepted requests per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rps = rps
		s.burst = burst
	}
}

// NewServer builds a gateway that fetches upstream through doer.
func NewServer(doer network.Doer, opts ...Option) *Server {
	s := &Server{doer: doer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the gateway routes wrapped in CORS, logging, recovery and optional rate limiting.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(constant.ProxyManifestPath, s.handleManifest)
	mux.HandleFunc(constant.ProxyStreamPath, s.handleStream)

	var h http.Handler = mux
	if s.rps > 0 {
		h = rateLimitMiddleware(s.rps, s.burst, h)
	}
	h = corsMiddleware(h)
	h = loggingMiddleware(h)
	return recoveryMiddleware(h)
}

// Start listens on addr and serves in the background. It returns a Gateway addressing the listener.
func (s *Server) Start(addr string) (*Gateway, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = l
	s.internal = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.internal.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("gateway stopped: %v", err)
		}
	}()

	return NewGateway("http://" + l.Addr().String())
}

// Shutdown stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.internal == nil {
		return nil
	}
	return s.internal.Shutdown(ctx)
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := network.Fetch(r.Context(), s.doer, req.Destination, req.Headers)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	base, _ := url.Parse(req.Destination)
	if _, err := hls.Parse(body, base); err != nil {
		http.Error(w, fmt.Sprintf("upstream is not a playlist: %v", err), http.StatusBadGateway)
		return
	}

	// Nested URIs point back at this server by path so they resolve against the manifest URL.
	self, _ := NewGateway("")
	rewritten := hls.Rewrite(body, base, func(abs string, kind hls.URIKind) string {
		if kind == hls.KindPlaylist {
			return self.ManifestURL(abs, req.Headers)
		}
		return self.StreamURL(abs, req.Headers)
	})

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(rewritten)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	upstream, err := network.NewRequest(r.Context(), r.Method, req.Destination, req.Headers, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, h := range forwarded {
		if v := r.Header.Get(h); v != "" {
			upstream.Header.Set(h, v)
		}
	}

	resp, err := s.doer.Do(upstream)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	defer resp.Body.Close()

	for _, h := range copied {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, resp.Body); err != nil && r.Context().Err() == nil {
		log.Debugf("gateway stream copy aborted: %v", err)
	}
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *network.StatusError
	if errors.As(err, &statusErr) {
		http.Error(w, err.Error(), statusErr.Code)
		return
	}
	http.Error(w, err.Error(), http.StatusBadGateway)
}
