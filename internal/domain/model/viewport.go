package model

import (
	"fmt"
	"math"
	"strings"
)

// ViewportOverscan 表示領域の外側まで読み込む倍率（20%）
// 少しのパンで再取得が起きないようにする
const ViewportOverscan = 1.2

// DefaultMarkerLimit 取得件数の既定値
const DefaultMarkerLimit = 1000

// Viewport クライアントが表示している矩形領域（中心と幅）
type Viewport struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	LatDelta float64 `json:"lat_delta"`
	LngDelta float64 `json:"lng_delta"`
}

// Validate 表示領域の値域チェック
func (v Viewport) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"lat", v.Lat}, {"lng", v.Lng}, {"lat_delta", v.LatDelta}, {"lng_delta", v.LngDelta},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %sは有限の数値である必要があります", ErrInvalidViewport, f.name)
		}
	}
	if v.Lat < -90 || v.Lat > 90 {
		return fmt.Errorf("%w: 緯度は-90から90の範囲内である必要があります (lat=%v)", ErrInvalidViewport, v.Lat)
	}
	if v.Lng < -180 || v.Lng > 180 {
		return fmt.Errorf("%w: 経度は-180から180の範囲内である必要があります (lng=%v)", ErrInvalidViewport, v.Lng)
	}
	if v.LatDelta <= 0 || v.LngDelta <= 0 {
		return fmt.Errorf("%w: lat_deltaとlng_deltaは正の値である必要があります", ErrInvalidViewport)
	}
	return nil
}

// MarkerFilter マーカー検索の絞り込み条件
type MarkerFilter struct {
	EmotionTags []string `json:"emotion_tags,omitempty"`
	MinLikes    *int     `json:"min_likes,omitempty"`
	MinViews    *int     `json:"min_views,omitempty"`
	OwnerID     *int64   `json:"owner_id,omitempty"` // my=true の時のみ設定
}

// ParseEmotionTags カンマ区切りの感情タグを分解（空要素と重複は除外）
func ParseEmotionTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// SortColumn 並び替え可能なカラム
type SortColumn string

const (
	SortByCreatedAt SortColumn = "created_at"
	SortByLikes     SortColumn = "likes"
	SortByViews     SortColumn = "views"
	SortByDislikes  SortColumn = "dislikes"
)

// SortDirection 並び順
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec ホワイトリスト済みの並び替え指定
type SortSpec struct {
	Column    SortColumn
	Direction SortDirection
}

// DefaultSort created_at desc
var DefaultSort = SortSpec{Column: SortByCreatedAt, Direction: SortDesc}

// NormalizeSort 並び替え指定をホワイトリストで正規化する
// 未知のカラム・方向はエラーにせず既定値に戻す
func NormalizeSort(sortBy, sortOrder string) SortSpec {
	spec := DefaultSort

	switch col := SortColumn(strings.ToLower(strings.TrimSpace(sortBy))); col {
	case SortByCreatedAt, SortByLikes, SortByViews, SortByDislikes:
		spec.Column = col
	}

	switch dir := SortDirection(strings.ToLower(strings.TrimSpace(sortOrder))); dir {
	case SortAsc, SortDesc:
		spec.Direction = dir
	}

	return spec
}

// NormalizeLimit 取得件数を正規化する（0以下は既定値、上限超過は上限）
func NormalizeLimit(limit, defaultLimit, maxLimit int) int {
	if defaultLimit <= 0 {
		defaultLimit = DefaultMarkerLimit
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// MarkerQuery Spatial Store Gatewayへの問い合わせ
type MarkerQuery struct {
	Viewport Viewport
	Filter   MarkerFilter
	Sort     SortSpec
	Limit    int
}
