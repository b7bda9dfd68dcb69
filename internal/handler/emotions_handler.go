package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bigpicture-backend/internal/domain/model"
)

// EmotionsHandler 感情タグ一覧のハンドラー
type EmotionsHandler struct{}

func NewEmotionsHandler() *EmotionsHandler {
	return &EmotionsHandler{}
}

// ListEmotions GET /api/emotions
func (h *EmotionsHandler) ListEmotions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"emotions": model.EmotionTags,
		"count":    len(model.EmotionTags),
	})
}

// GetEmotion GET /api/emotions/:id
func (h *EmotionsHandler) GetEmotion(c *gin.Context) {
	emotion, ok := model.EmotionByID(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "感情タグが見つかりません: "+c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"emotion": emotion,
	})
}
