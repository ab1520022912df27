package middleware

import (
	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLogger writes one hclog line per request.  5xx responses log at
// error level, 4xx at warn, the rest at info.
func RequestLogger(logger hclog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.RequestID != "" {
				args = append(args, "request_id", v.RequestID)
			}
			if uid, ok := UserID(c); ok {
				args = append(args, "user_id", uid)
			}
			if v.Error != nil {
				args = append(args, "error", v.Error)
			}
			switch {
			case v.Status >= 500:
				logger.Error("request", args...)
			case v.Status >= 400:
				logger.Warn("request", args...)
			default:
				logger.Info("request", args...)
			}
			return nil
		},
	})
}
