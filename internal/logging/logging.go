// Package logging 构造服务统一使用的 zerolog 日志器，以及 gin 访问日志中间件。
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader 用于透传或回写请求 ID。
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// New 按级别与格式构造日志器。format 为 json 时输出 JSON，其余情况使用控制台格式。
func New(level, format, service string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format, service)
}

// NewWithWriter 与 New 相同，但写入指定的 writer。
func NewWithWriter(w io.Writer, level, format, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if !strings.EqualFold(strings.TrimSpace(format), "json") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	if service != "" {
		logger = logger.With().Str("service", service).Logger()
	}
	return logger
}

// RequestID 返回当前请求的 ID，中间件未执行时为空字符串。
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Middleware 为每个请求分配请求 ID，并在请求结束后写一条访问日志。
// userKey 是上下文中用户标识的键，为空时不记录用户。
func Middleware(log zerolog.Logger, userKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}

		event = event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("size", c.Writer.Size())
		if userKey != "" {
			if user := c.GetString(userKey); user != "" {
				event = event.Str("user_id", user)
			}
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request")
	}
}
