package repository

import (
	"context"
	"sort"
	"sync"

	"bigpicture-backend/internal/domain/model"
	"bigpicture-backend/internal/domain/repository"
)

// MemoryMarkersRepository メモリ上のマーカーストア（ローカル実行・テスト用）
type MemoryMarkersRepository struct {
	mu      sync.RWMutex
	markers []model.Marker
	images  map[int64][]model.MarkerImage
}

func NewMemoryMarkersRepository() *MemoryMarkersRepository {
	return &MemoryMarkersRepository{
		images: make(map[int64][]model.MarkerImage),
	}
}

var (
	_ repository.MarkersRepository      = (*MemoryMarkersRepository)(nil)
	_ repository.MarkerImagesRepository = (*MemoryMarkersRepository)(nil)
)

// AddMarker マーカーを追加
func (r *MemoryMarkersRepository) AddMarker(marker model.Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.markers = append(r.markers, marker)
}

// AddImage 画像を追加
func (r *MemoryMarkersRepository) AddImage(image model.MarkerImage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.images[image.MarkerID] = append(r.images[image.MarkerID], image)
}

func (r *MemoryMarkersRepository) QueryMarkers(ctx context.Context, q model.MarkerQuery) ([]model.Marker, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewStoreError("query_markers", err)
	}

	bound := ViewportToBound(q.Viewport)
	tags := make(map[string]struct{}, len(q.Filter.EmotionTags))
	for _, tag := range q.Filter.EmotionTags {
		tags[tag] = struct{}{}
	}

	r.mu.RLock()
	result := make([]model.Marker, 0)
	for i := range r.markers {
		m := r.markers[i]
		if !bound.Contains(MarkerPoint(&m)) {
			continue
		}
		if len(tags) > 0 {
			if _, ok := tags[m.EmotionTag]; !ok {
				continue
			}
		}
		if q.Filter.MinLikes != nil && m.Likes < *q.Filter.MinLikes {
			continue
		}
		if q.Filter.MinViews != nil && m.Views < *q.Filter.MinViews {
			continue
		}
		if q.Filter.OwnerID != nil && !m.IsOwnedBy(*q.Filter.OwnerID) {
			continue
		}
		result = append(result, m)
	}
	r.mu.RUnlock()

	spec := model.NormalizeSort(string(q.Sort.Column), string(q.Sort.Direction))
	sort.SliceStable(result, func(i, j int) bool {
		return lessMarker(result[i], result[j], spec)
	})

	if limit := model.NormalizeLimit(q.Limit, model.DefaultMarkerLimit, 0); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *MemoryMarkersRepository) ListImages(ctx context.Context, markerID int64) ([]model.MarkerImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewStoreError("list_images", err)
	}

	r.mu.RLock()
	images := append([]model.MarkerImage(nil), r.images[markerID]...)
	r.mu.RUnlock()

	sort.SliceStable(images, func(i, j int) bool {
		if images[i].ImageOrder != images[j].ImageOrder {
			return images[i].ImageOrder < images[j].ImageOrder
		}
		return images[i].CreatedAt.Before(images[j].CreatedAt)
	})
	if images == nil {
		images = []model.MarkerImage{}
	}
	return images, nil
}

// lessMarker ORDER BY <col> <dir>, id <dir> と同じ比較
func lessMarker(a, b model.Marker, spec model.SortSpec) bool {
	var cmp int
	switch spec.Column {
	case model.SortByLikes:
		cmp = compareInt(a.Likes, b.Likes)
	case model.SortByViews:
		cmp = compareInt(a.Views, b.Views)
	case model.SortByDislikes:
		cmp = compareInt(a.Dislikes, b.Dislikes)
	default:
		cmp = a.CreatedAt.Compare(b.CreatedAt)
	}
	if cmp == 0 {
		cmp = compareInt(int(a.ID), int(b.ID))
	}
	if spec.Direction == model.SortAsc {
		return cmp < 0
	}
	return cmp > 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
