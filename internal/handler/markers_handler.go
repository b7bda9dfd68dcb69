package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bigpicture-backend/internal/domain/model"
	"bigpicture-backend/internal/usecase"
)

// MarkersHandler マーカー・クラスタAPIのハンドラー
type MarkersHandler struct {
	clusterUseCase usecase.MarkerClusterUseCase
}

// NewMarkersHandler 新しいMarkersHandlerインスタンスを作成
func NewMarkersHandler(clusterUseCase usecase.MarkerClusterUseCase) *MarkersHandler {
	return &MarkersHandler{
		clusterUseCase: clusterUseCase,
	}
}

// GetClusters GET /api/markers/clusters - 表示領域のマーカーをクラスタで取得
func (h *MarkersHandler) GetClusters(c *gin.Context) {
	req, err := parseClusterRequest(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.clusterUseCase.GetClusters(c.Request.Context(), req, memberIDFrom(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetMarkerImages GET /api/markers/:id/images - マーカーの画像一覧
func (h *MarkersHandler) GetMarkerImages(c *gin.Context) {
	markerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || markerID <= 0 {
		respondError(c, http.StatusBadRequest, "マーカーIDが正しくありません")
		return
	}

	images, err := h.clusterUseCase.ListMarkerImages(c.Request.Context(), markerID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"marker_id": markerID,
		"images":    images,
		"count":     len(images),
	})
}

// parseClusterRequest クエリパラメータを解析（値の範囲チェックはサービス層）
func parseClusterRequest(c *gin.Context) (*model.ClusterRequest, error) {
	var (
		req model.ClusterRequest
		err error
	)

	if req.Viewport.Lat, err = requiredFloat(c, "lat"); err != nil {
		return nil, err
	}
	if req.Viewport.Lng, err = requiredFloat(c, "lng"); err != nil {
		return nil, err
	}
	if req.Viewport.LatDelta, err = requiredFloat(c, "lat_delta"); err != nil {
		return nil, err
	}
	if req.Viewport.LngDelta, err = requiredFloat(c, "lng_delta"); err != nil {
		return nil, err
	}

	if req.Zoom, err = optionalInt(c, "zoom"); err != nil {
		return nil, err
	}
	if req.Filter.MinLikes, err = optionalInt(c, "min_likes"); err != nil {
		return nil, err
	}
	if req.Filter.MinViews, err = optionalInt(c, "min_views"); err != nil {
		return nil, err
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		return nil, err
	}
	if limit != nil {
		req.Limit = *limit
	}

	req.Filter.EmotionTags = model.ParseEmotionTags(c.Query("emotion_tags"))
	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	switch strings.ToLower(c.Query("my")) {
	case "true", "1":
		req.My = true
	}

	return &req, nil
}

func requiredFloat(c *gin.Context, key string) (float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("%sは必須です", key)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%sは数値で指定してください", key)
	}
	return v, nil
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%sは整数で指定してください", key)
	}
	return &v, nil
}
