package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/media-service/internal/observability"
	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, dev bool) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics, dev))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware is the single boundary where failures become
// client envelopes. Every error passes through the taxonomy exactly once.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, dev bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = util.NewInternalError(nil)
			}
			if err != nil {
				appErr := util.Translate(err, dev)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), string(appErr.Code))
					switch appErr.Code {
					case util.CodeUnauthorized, util.CodeUnauthenticated, util.CodeForbidden,
						util.CodeSubscriptionRequired, util.CodeRateLimited, util.CodeRateLimitExceeded:
						metrics.RecordGuardDenial(c.Path(), string(appErr.Code))
					}
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    appErr.Code,
					"status":  appErr.Status,
					"message": appErr.Message,
				}}
				if len(appErr.Data) > 0 {
					response["error"].(fiber.Map)["data"] = appErr.Data
				}
				if appErr.Status >= 500 {
					logger.Error("request failed", zap.Error(appErr))
				}
				c.Status(appErr.Status)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}
