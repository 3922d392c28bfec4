package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type contextKey int

const contextKeyRequestID contextKey = iota

// requestIDFrom returns the request ID stored by requestIDMiddleware.
func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// wrap applies the middleware shared by every route. Only limited routes
// pass through the rate limiter.
func (s *Server) wrap(handler string, next http.HandlerFunc, limited bool) http.HandlerFunc {
	if limited {
		next = s.rateLimitMiddleware(next)
	}
	return s.metricsMiddleware(handler,
		s.requestIDMiddleware(
			s.panicRecoveryMiddleware(
				s.loggingMiddleware(next),
			),
		),
	)
}

// requestIDMiddleware keeps a valid X-Request-Id from the client or
// generates a new one.
func (s *Server) requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// rateLimitMiddleware rejects requests beyond the token bucket with 429.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.inst.rateLimitRejects.Inc()
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// panicRecoveryMiddleware turns a handler panic into a 500.
func (s *Server) panicRecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.inst.panicRecoveries.Inc()
				s.logger.Error("panic recovered",
					"panic", fmt.Sprint(v),
					"request_id", requestIDFrom(r.Context()),
					"path", r.URL.Path,
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	}
}

func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		next.ServeHTTP(rec, r)
		s.logger.Debug("request completed",
			"request_id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status(),
			"bytes", rec.Size(),
			"duration", time.Since(start),
		)
	}
}

// metricsMiddleware records request count, latency and response size per
// handler.
func (s *Server) metricsMiddleware(handler string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		next.ServeHTTP(rec, r)
		s.inst.requests.WithLabelValues(handler, r.Method, strconv.Itoa(rec.Status())).Inc()
		s.inst.requestDuration.WithLabelValues(handler).Observe(time.Since(start).Seconds())
		s.inst.responseSize.WithLabelValues(handler).Observe(float64(rec.Size()))
	}
}
