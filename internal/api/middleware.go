package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	model "github.com/glkeru/barbershop/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// метрики

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_http_requests_total",
			Help: "Кол-во HTTP запросов",
		},
		[]string{"path", "code"},
	)

	httpRequestsError = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barbershop_http_errors_total",
			Help: "Кол-во ошибочных HTTP запросов",
		},
		[]string{"path", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barbershop_http_request_duration_seconds",
			Help:    "Продолжительность HTTP запросов",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "code"},
	)
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// MiddlewareMetrics counts requests per route template, not per raw path.
func MiddlewareMetrics() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{w, http.StatusOK}
			next.ServeHTTP(sw, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}
			labels := prometheus.Labels{
				"path": path,
				"code": strconv.Itoa(sw.status),
			}
			httpRequestsTotal.With(labels).Inc()
			httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
			if sw.status >= http.StatusBadRequest {
				httpRequestsError.With(labels).Inc()
			}
		})
	}
}

const requestIDHeader = "X-Request-ID"

// MiddlewareRequestID echoes the caller's request id or assigns a new one.
func MiddlewareRequestID() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// авторизация

const RoleAdmin = "admin"

// Claims of the bearer token issued by the accounts service.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

type identity struct {
	userID string
	role   string
}

func withIdentity(ctx context.Context, id identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func identityFrom(ctx context.Context) identity {
	id, _ := ctx.Value(ctxKey{}).(identity)
	return id
}

func userID(r *http.Request) string {
	return identityFrom(r.Context()).userID
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			h.fail(w, r, model.ErrUnauthorized)
			return
		}
		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return h.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || claims.Subject == "" {
			h.fail(w, r, model.ErrUnauthorized)
			return
		}
		ctx := withIdentity(r.Context(), identity{userID: claims.Subject, role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r.Context()).role != RoleAdmin {
			h.fail(w, r, model.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// scanLimiter throttles QR scans per admin account.
type scanLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// perSecond <= 0 disables throttling
func newScanLimiter(perSecond float64) *scanLimiter {
	l := &scanLimiter{limit: rate.Inf, burst: 1, limiters: map[string]*rate.Limiter{}}
	if perSecond > 0 {
		l.limit = rate.Limit(perSecond)
		l.burst = max(1, int(math.Ceil(perSecond)))
	}
	return l
}

func (l *scanLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

func (h *Handler) throttleScans(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.scans.get(userID(r)).Allow() {
			h.fail(w, r, model.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
