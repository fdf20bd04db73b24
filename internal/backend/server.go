package backend

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/putao520/qrcodesdk/internal/common"
)

const ProbePath = "/probe"

// MaxBodySize bounds uploaded logos and images.
const MaxBodySize = "10M"

// NewServer returns an echo instance with request logging, recovery and
// validation configured.
func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == ProbePath
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRoutePath: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"route", v.RoutePath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"user_agent", v.UserAgent,
			}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, "error", v.Error)...)
			} else {
				slog.Info("request", attrs...)
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(MaxBodySize))
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = common.NewGenericEchoValidator()

	return e
}
