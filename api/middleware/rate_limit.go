package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/api/responses"
	"github.com/littlelemonhq/littlelemon-backend/pkg/config"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"github.com/littlelemonhq/littlelemon-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// MenuRateLimit throttles the menu listing: per-user for authenticated
// callers, per-IP for anonymous ones.
func MenuRateLimit(cfg config.RateLimitConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.MenuWindow <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			caller := "anon"
			subject := clientIP(r)
			limit := int64(cfg.MenuAnonLimit)
			if userID := UserIDFromContext(ctx); userID != uuid.Nil {
				caller = "user"
				subject = userID.String()
				limit = int64(cfg.MenuUserLimit)
			}
			if limit <= 0 || subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			scope := fmt.Sprintf("menu:%s:%s", caller, subject)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, limit, cfg.MenuWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          limit,
						"window_seconds": int(cfg.MenuWindow.Seconds()),
					})
					logg.Warn(logCtx, "menu.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
