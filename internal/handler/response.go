package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bigpicture-backend/internal/domain/model"
)

// errorBody エラーレスポンスの共通形式
type errorBody struct {
	Success bool        `json:"success"`
	Error   errorDetail `json:"error"`
}

type errorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// respondError 共通形式でエラーを返す
func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody{
		Success: false,
		Error: errorDetail{
			Code:    status,
			Message: message,
			Status:  http.StatusText(status),
		},
	})
}

// respondDomainError ドメインエラーをHTTPステータスに変換して返す
func respondDomainError(c *gin.Context, err error) {
	status := statusFor(err)
	log := zerolog.Ctx(c.Request.Context())

	switch {
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Int("status", status).Msg("💥 リクエスト処理に失敗")
		respondError(c, status, messageFor(status, err))
	default:
		log.Info().Err(err).Int("status", status).Msg("リクエストを拒否")
		respondError(c, status, err.Error())
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidViewport):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// messageFor 5xxでは内部エラーの詳細を返さない
func messageFor(status int, err error) string {
	switch status {
	case http.StatusGatewayTimeout:
		return "処理がタイムアウトしました"
	default:
		if errors.Is(err, model.ErrStoreUnavailable) {
			return "マーカーストアに接続できません"
		}
		return "サーバー内部でエラーが発生しました"
	}
}
