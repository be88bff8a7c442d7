package http

import (
	"errors"
	"strings"
	"time"

	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const actorKey = "actor"

// authenticate resolves the bearer token into an actor. Browsers cannot set
// headers on a websocket handshake, so a token query parameter is accepted
// as well.
func authenticate(identity ports.IdentityGateway) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				token = c.QueryParam("token")
			}
			if token == "" {
				return errs.NewUnauthenticatedError(errors.New("bearer token is missing"))
			}

			a, err := identity.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errs.KindOf(err) == errs.KindInternal {
					return errs.NewUnauthenticatedError(err)
				}
				return err
			}

			c.Set(actorKey, a)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireRole rejects actors without role with Forbidden.
func requireRole(role actor.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, err := actorFrom(c)
			if err != nil {
				return err
			}
			if err := a.Require(role); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) (actor.Actor, error) {
	a, ok := c.Get(actorKey).(actor.Actor)
	if !ok {
		return actor.Actor{}, errs.NewUnauthenticatedError(errors.New("request is not authenticated"))
	}
	return a, nil
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Status >= 500 {
				event = logger.Error().Err(v.Error)
			}
			if a, err := actorFrom(c); err == nil {
				event = event.Str("actor_id", a.ID.String()).Str("actor_role", a.Role.String())
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("route", v.RoutePath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// observe records every request in m. It runs inside the request logger,
// so errors are not yet rendered and the status is derived from err.
func observe(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = toResponse(err).Code
			}
			m.Observe(c.Request().Method, c.Path(), status, time.Since(start))
			return err
		}
	}
}
