package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/apreader/client/pkg/compositor"
)

const (
	timeout = 10 * time.Second
	qrSize  = 320
)

// Server exposes a Board over HTTP.
type Server struct {
	Addr    string
	Board   *Board
	Version string
	Logger  *log.Logger
	Verbose bool
}

func NewServer(addr string, board *Board, version string, logger *log.Logger) *Server {
	return &Server{Addr: addr, Board: board, Version: version, Logger: logger}
}

func (s *Server) logf(format string, args ...any) {
	if !s.Verbose || s.Logger == nil {
		return
	}
	s.Logger.Printf(format, args...)
}

// Handler returns the router with every status route registered.
func (s *Server) Handler() http.Handler {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		if s.Logger != nil {
			s.Logger.Printf("status: panic serving %s: %v", r.URL.Path, i)
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
	}

	mux.GET("/healthz", s.serveHealthCheck)
	mux.GET("/version", s.serveVersion)
	mux.GET("/state", s.serveState)
	mux.GET("/notifications/:bucket", s.serveNotifications)
	mux.GET("/qr", s.serveQR)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("status listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	errs := make(chan error, 1)
	go func() {
		s.logf("status: listening on http://%s/", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("status serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) serveHealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ok\n"))
}

func (s *Server) serveVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("apreader v" + s.Version + "\n"))
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, r, s.Board.State())
}

func (s *Server) serveNotifications(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	bucket, err := compositor.ParseBucket(p.ByName("bucket"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeJSON(w, r, s.Board.Entries(bucket))
}

// serveQR renders a QR code pointing at this server's /state page so a
// phone on the same network can follow along.
func (s *Server) serveQR(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := scheme + "://" + r.Host + "/state"

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		if s.Logger != nil {
			s.Logger.Printf("status: write %s: %v", r.URL.Path, err)
		}
		return
	}
	s.logf("status: served %s to %s in %s", r.URL.Path, r.RemoteAddr, time.Since(start).Round(time.Microsecond))
}
