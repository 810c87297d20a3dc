package server

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"net/netip"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"igproxy/pkg/logger"
	"igproxy/pkg/ratelimit"
)

const (
	requestIDHeader = "X-Request-ID"
	healthPath      = "/healthz"
	staticPrefix    = "/static/"

	allowMethods = "GET, POST, OPTIONS"
	allowHeaders = "Content-Type"
)

// recoverer turns a panicking handler into a JSON 500
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			s.logger.WithContext(r.Context()).ErrorWithFields("Handler panicked", map[string]interface{}{
				"panic": fmt.Sprint(rec),
				"path":  r.URL.Path,
				"stack": string(debug.Stack()),
			})

			writeMessage(w, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}

// requestID tags the request context and response with an id, reusing the
// caller's X-Request-ID when present
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if r.URL.Path == healthPath && status == http.StatusOK {
			return
		}
		logger.LogRequest(s.logger.WithContext(r.Context()), r.Method, r.URL.Path, status, time.Since(start))
	})
}

// corsHandler answers browser preflights, those carrying Origin and
// Access-Control-Request-Method
func corsHandler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{allowHeaders},
		ExposedHeaders: []string{requestIDHeader, "X-Cache", "Retry-After"},
		MaxAge:         86400,
	})
}

// preflight answers any remaining OPTIONS request with the CORS headers and
// an empty body
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		w.WriteHeader(http.StatusOK)
	})
}

// rateLimit counts API requests against the client's fixed window. Health
// checks and UI assets are free. A failing limiter store lets the request
// through.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || unmetered(r) {
			next.ServeHTTP(w, r)
			return
		}

		client := s.clientIP(r)
		decision, err := s.limiter.Allow(r.Context(), client)
		if err != nil {
			s.logger.WithContext(r.Context()).WithError(err).WithField("client", client).Error("Rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			logger.LogRateLimit(s.logger.WithContext(r.Context()), client, decision.Count, decision.RetryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			writeMessage(w, http.StatusTooManyRequests, ratelimit.RejectionMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func unmetered(r *http.Request) bool {
	if r.URL.Path == healthPath {
		return true
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return r.URL.Path == "/" || strings.HasPrefix(r.URL.Path, staticPrefix)
}

// clientIP identifies the caller for rate limiting. Proxy headers are only
// consulted when the server trusts them and the peer is a trusted proxy.
func (s *Server) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !s.trustsPeer(peer) {
		return peer
	}

	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}

// trustsPeer reports whether peer may speak for the client. With no
// trusted_proxies configured every peer is trusted once headers are enabled.
func (s *Server) trustsPeer(peer string) bool {
	if !s.cfg.TrustProxyHeaders {
		return false
	}
	if len(s.proxies) == 0 {
		return true
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	return host
}
