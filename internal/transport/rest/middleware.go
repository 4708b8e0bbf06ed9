package rest

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/cityagenda/event-platform/internal/security"
)

type AuthOptions struct {
	// If set (non-empty), enforce exact issuer match.
	ExpectedIssuer string
}

func AuthMiddleware(verifier security.AccessTokenVerifier, opt AuthOptions) func(next http.Handler) http.Handler {
	if verifier == nil {
		panic("AuthMiddleware: nil verifier")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := strings.TrimSpace(r.Header.Get("Authorization"))
			if h == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			raw := strings.TrimSpace(parts[1])
			if raw == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyAccessToken(raw)
			if err != nil {
				// Expired vs invalid stays 401 either way.
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if opt.ExpectedIssuer != "" && claims.Issuer != opt.ExpectedIssuer {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if claims.UserID <= 0 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := withAuth(r.Context(), AuthContext{
				UserID: claims.UserID,
				Role:   strings.TrimSpace(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards moderation routes. It assumes AuthMiddleware already
// ran, so a missing auth context is a 401 rather than a 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, ok := GetAuth(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if auth.Role != security.RoleAdmin {
			fail(w, r, http.StatusForbidden, "auth.forbidden", "admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RateLimitMiddleware(cache domain.CacheRepository, limit int, window time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, _ := cache.AllowRequest(r.Context(), ip, limit, window)
			if !allowed {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keeps it simple: RemoteAddr host part.
// If you are behind a trusted reverse proxy, you may choose to trust
// X-Forwarded-For, but doing so blindly is a spoofing risk.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

		next.ServeHTTP(w, r)
	})
}
