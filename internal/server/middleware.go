package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/muurk/skylog/internal/logging"
)

const (
	requestIDKey = "request_id"
	uidKey       = "uid"
	emailKey     = "email"
)

// RequestID ensures every request has an ID for tracing and logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// GetRequestID extracts request_id from gin context when available.
func GetRequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(requestIDKey)
}

// Logger logs one line per request through zap.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.LogHTTPRequest(
			GetRequestID(c),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
		)
	}
}

// RequireSession rejects requests without a valid session token. The token
// comes from "Authorization: Bearer <token>" or, for websocket clients that
// cannot set headers, the token query parameter.
func (s *Server) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			abortError(c, http.StatusUnauthorized, s.message(errMissingToken))
			return
		}

		claims, err := s.deps.Auth.SessionClaims(token)
		if err != nil {
			abortError(c, http.StatusUnauthorized, s.message(err))
			return
		}
		c.Set(uidKey, claims.Subject)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
