package handler

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"golang.org/x/time/rate"
)

type principalKey struct{}

// Claims is the access token payload. Subject carries the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticator verifies HMAC-signed bearer tokens issued by the identity service.
type Authenticator struct {
	secret []byte
	log    logrus.FieldLogger
}

func NewAuthenticator(secret string, log logrus.FieldLogger) *Authenticator {
	return &Authenticator{secret: []byte(secret), log: log}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid authorization header"})
			return
		}

		principal, err := a.Parse(parts[1])
		if err != nil {
			a.log.WithError(err).Debug("rejected access token")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Parse validates a token and turns its claims into a Principal.
func (a *Authenticator) Parse(tokenStr string) (domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: subject is not a user id", domain.ErrUnauthorized)
	}

	role := domain.Role(strings.ToLower(claims.Role))
	switch role {
	case domain.RoleUser, domain.RoleOwner, domain.RoleAdmin:
	case "":
		role = domain.RoleUser
	default:
		return domain.Principal{}, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, claims.Role)
	}

	return domain.Principal{UserID: userID, Role: role}, nil
}

// Sign issues a token for p. Used by tests and local tooling.
func (a *Authenticator) Sign(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireOwner rejects callers that cannot act for a hotel.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing authorization"})
			return
		}
		if !p.IsOwner() {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "owner role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ipLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rps      rate.Limit
	burst    int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *RateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.last = time.Now()
	return entry.limiter
}

// Cleanup drops limiters idle for longer than maxIdle.
func (l *RateLimiter) Cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for ip, entry := range l.limiters {
		if now.Sub(entry.last) > maxIdle {
			delete(l.limiters, ip)
		}
	}
}

// RunCleanup prunes idle limiters until ctx is done.
func (l *RateLimiter) RunCleanup(ctx context.Context, every, maxIdle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Cleanup(maxIdle)
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(remoteIP(r)).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestLogger logs one line per request with status and latency.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"latency_ms": time.Since(start).Milliseconds(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("http request")
		})
	}
}
