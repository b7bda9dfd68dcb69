package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bigpicture-backend/internal/infrastructure/auth"
	"bigpicture-backend/internal/infrastructure/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	memberIDKey     = "member_id"
)

// RequestLogger request_id付きのロガーをリクエストのcontextに載せ、完了時にアクセスログを出す
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqLogger := logger.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := reqLogger.Info()
		if status >= http.StatusInternalServerError {
			event = reqLogger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(started)).
			Msg("request")
	}
}

// Timeout リクエスト全体の期限。期限切れでパイプライン全体が中断される
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Metrics APIリクエスト数とレイテンシを記録
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request.Method, path, c.Writer.Status(), time.Since(started))
	}
}

// OptionalAuth Bearerトークンがあれば検証して会員IDをcontextに入れる
// トークンなしは匿名として通し、不正なトークンは401
func OptionalAuth(validator *auth.JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if validator == nil || header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(c, http.StatusUnauthorized, "Authorizationヘッダーの形式が正しくありません")
			return
		}

		memberID, err := validator.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Info().Err(err).Msg("🔒 トークン検証失敗")
			respondError(c, http.StatusUnauthorized, "トークンが無効です")
			return
		}

		c.Set(memberIDKey, memberID)
		c.Next()
	}
}

// memberIDFrom 認証済みなら会員IDを返す
func memberIDFrom(c *gin.Context) *int64 {
	v, ok := c.Get(memberIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok {
		return nil
	}
	return &id
}
