package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
)

// RequestContextMiddleware tags every request with an id, taken from the
// X-Request-ID header when the caller sent one, and puts a logger carrying
// it into the request context.
func (svc *APIService) RequestContextMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id := ctx.Request().Header.Get(constants.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(constants.CtxKeyRequestID, id)
		ctx.Response().Header().Set(constants.HeaderRequestID, id)

		reqCtx := logger.WithFields(ctx.Request().Context(), constants.CtxKeyRequestID, id)
		ctx.SetRequest(ctx.Request().WithContext(reqCtx))

		return next(ctx)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error != nil {
				logger.Warnf(ctx, "%s %s %d %s: %s", v.Method, v.URI, v.Status, v.Latency, v.Error.Error())
				return nil
			}
			logger.Infof(ctx, "%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	})
}
