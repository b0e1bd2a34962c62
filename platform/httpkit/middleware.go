package httpkit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"membership_backend/platform/apperr"
	"membership_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextUserIDKey is the gin context key for the authenticated user ID.
	ContextUserIDKey = "userID"
	// HeaderRequestID carries the request id in and out of the service.
	HeaderRequestID = "X-Request-ID"

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
	errUnauthorized = "unauthorized"
)

// TokenVerifier validates a raw bearer token and returns its subject.
type TokenVerifier interface {
	Verify(rawToken string) (uuid.UUID, error)
}

// RequestID assigns every request an id, reusing a client supplied one when
// it is a valid UUID. The id is echoed in the response and stored on the
// request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Header(HeaderRequestID, requestID)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs HTTP requests with timing, plus any error a handler
// attached with HandleError.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()
		reqLog := log.WithContext(c.Request.Context())

		for _, ginErr := range c.Errors {
			if shouldLogError(ginErr.Err) {
				reqLog.HTTPError(c.Request.Method, path, status, ginErr.Err, clientIP)
			}
		}
		reqLog.HTTPRequest(c.Request.Method, path, status, float64(latency.Milliseconds()), clientIP)
	}
}

// shouldLogError keeps expected client errors out of the error log.
// Failed writes and anything untyped are logged with their cause.
func shouldLogError(err error) bool {
	if errors.Is(err, ErrMalformedBody) {
		return false
	}
	domainErr, ok := apperr.As(err)
	if !ok {
		return true
	}
	return domainErr.Err != nil || domainErr.Kind == apperr.KindInternal || domainErr.Kind == apperr.KindUnknown
}

// Recovery converts panics into the generic 500 envelope.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithContext(c.Request.Context()).Error("panic_recovered",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		AbortError(c, http.StatusInternalServerError, msgUnexpected)
	})
}

// NoRoute answers unknown routes with the JSON error envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", nil)
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Cache-Control", "no-store")

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// AuthRequired returns middleware that validates bearer access tokens and
// stores the token subject as the caller's user ID.
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortError(c, http.StatusUnauthorized, errMissingToken)
			return
		}

		userID, err := verifier.Verify(rawToken)
		if err != nil {
			AbortError(c, http.StatusUnauthorized, errInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, userID)
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearerToken(authHeader string) (string, bool) {
	const prefix = "Bearer "
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	rawToken := strings.TrimSpace(authHeader[len(prefix):])
	if rawToken == "" {
		return "", false
	}

	return rawToken, true
}

// ErrMalformedBody is attached when a request body cannot be decoded.
var ErrMalformedBody = errors.New("malformed request body")

// BindJSON decodes the request body into dst. On failure it writes the 400
// envelope and returns false.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(errors.Join(ErrMalformedBody, err))
		Error(c, http.StatusBadRequest, "invalid request", nil)
		return false
	}
	return true
}
