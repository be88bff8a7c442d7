package http

import (
	"errors"
	"net/http"

	"tracking/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation, errs.KindInvalidTransition:
		return http.StatusBadRequest
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindUnavailable:
		return http.StatusServiceUnavailable
	case errs.KindTimeout:
		return http.StatusGatewayTimeout
	case errs.KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// toResponse maps err onto a status and a body. Only caller-facing kinds
// carry the error text; dependency and internal failures get a fixed
// message.
func toResponse(err error) ErrorResponse {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return ErrorResponse{Code: httpErr.Code, Error: http.StatusText(httpErr.Code), Message: msg}
	}

	kind := errs.KindOf(err)
	resp := ErrorResponse{Code: statusForKind(kind), Error: kind.String()}

	switch kind {
	case errs.KindValidation, errs.KindInvalidTransition, errs.KindForbidden, errs.KindNotFound:
		resp.Message = err.Error()
	case errs.KindUnauthenticated:
		resp.Message = "unauthorized"
	case errs.KindUnavailable:
		resp.Message = "service unavailable"
	case errs.KindTimeout:
		resp.Message = "request timed out"
	case errs.KindInternal:
		resp.Message = "internal server error"
	}
	return resp
}

// errorHandler is installed as echo's HTTPErrorHandler.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := toResponse(err)
	if resp.Code >= http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("route", c.Path()).
			Str("kind", resp.Error).
			Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(resp.Code)
		return
	}
	if jsonErr := c.JSON(resp.Code, resp); jsonErr != nil {
		s.logger.Error().Err(jsonErr).Msg("failed to write error response")
	}
}
