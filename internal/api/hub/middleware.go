package hub

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	prommetrics "github.com/aimd54/arcade-hub/internal/metrics"
	"github.com/aimd54/arcade-hub/pkg/logger"
)

// Identity cookies.
const (
	UserCookie    = "arcade_uid"
	SessionCookie = "arcade_sid"

	userIDKey    = "user_id"
	sessionIDKey = "session_id"

	userCookieMaxAge = 365 * 24 * 60 * 60
)

// Identity assigns every visitor a persistent anonymous user id and a
// browser-session id, both random UUIDs carried in cookies.
func Identity(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)

		userID := cookieID(c, UserCookie)
		if userID == "" {
			userID = uuid.NewString()
			c.SetCookie(UserCookie, userID, userCookieMaxAge, "/", "", secure, true)
		}

		sessionID := cookieID(c, SessionCookie)
		if sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(SessionCookie, sessionID, 0, "/", "", secure, true)
		}

		c.Set(userIDKey, userID)
		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// cookieID returns the cookie value when it holds a valid UUID.
func cookieID(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(value); err != nil {
		return ""
	}
	return value
}

// UserID returns the anonymous user id of the request.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// SessionID returns the browser-session id of the request.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// RequestLogger logs every request and records HTTP metrics.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		prommetrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), latency.Seconds())

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}
		if log.IsDebug() && c.Request.URL.RawQuery != "" {
			event = event.Str("query", c.Request.URL.RawQuery)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
