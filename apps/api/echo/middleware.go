package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/ratelimit"
	"github.com/darasa-app/darasa/core/user"
)

// Per-endpoint-class rate limits.
var (
	authLimiter   = ratelimit.New("auth", 5, 15*time.Minute)
	apiLimiter    = ratelimit.New("api", 100, time.Minute)
	searchLimiter = ratelimit.New("search", 30, time.Minute)
)

// clientID identifies the calling client for rate limiting:
// first X-Forwarded-For entry, then X-Real-IP, else a shared fallback bucket.
func clientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

func rateLimitMiddleware(lim *ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if err := lim.Check(clientID(ctx.Request())); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// adminMiddleware restricts an endpoint to admins, plus any extra roles given.
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errForbidden
		}
	}
}

// mustChangePasswordMiddleware blocks accounts flagged for forced password
// rotation from doing anything until they change their password. The
// password-change endpoint itself is registered outside the gated group.
func mustChangePasswordMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if usr.MustChangePassword {
				return errMustChangePassword
			}
			return next(ctx)
		}
	}
}
