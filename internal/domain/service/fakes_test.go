package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bigpicture-backend/internal/domain/model"
)

// fakeMarkersRepo 表示領域に関係なく固定のマーカーを返す
type fakeMarkersRepo struct {
	markers []model.Marker
	err     error
	queries []model.MarkerQuery
	mu      sync.Mutex
}

func (f *fakeMarkersRepo) QueryMarkers(ctx context.Context, q model.MarkerQuery) ([]model.Marker, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Marker(nil), f.markers...), nil
}

// fakeImagesRepo マーカーID別の画像を返す。failing のIDはエラー
type fakeImagesRepo struct {
	images  map[int64][]model.MarkerImage
	failing map[int64]bool
	delay   time.Duration

	mu       sync.Mutex
	calls    map[int64]int
	inFlight int32
	maxSeen  int32
}

func newFakeImagesRepo() *fakeImagesRepo {
	return &fakeImagesRepo{
		images:  make(map[int64][]model.MarkerImage),
		failing: make(map[int64]bool),
		calls:   make(map[int64]int),
	}
}

func (f *fakeImagesRepo) ListImages(ctx context.Context, markerID int64) ([]model.MarkerImage, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if current <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, current) {
			break
		}
	}

	f.mu.Lock()
	f.calls[markerID]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failing[markerID] {
		return nil, model.NewStoreError("list_images", errors.New("connection reset"))
	}
	return f.images[markerID], nil
}

// constantAssigner 全マーカーを同じセルに入れる
type constantAssigner struct{}

func (constantAssigner) CellID(lat, lng float64, resolution int) string {
	return "all"
}

func (constantAssigner) Scheme() string {
	return "constant"
}

// hemisphereAssigner 北半球と南半球の2セル
type hemisphereAssigner struct{}

func (hemisphereAssigner) CellID(lat, lng float64, resolution int) string {
	if lat >= 0 {
		return "N"
	}
	return "S"
}

func (hemisphereAssigner) Scheme() string { return "hemisphere" }

func marker(id int64, lat, lng float64) model.Marker {
	return model.Marker{
		ID:        id,
		Latitude:  lat,
		Longitude: lng,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
	}
}

func image(id, markerID int64, order int) model.MarkerImage {
	return model.MarkerImage{
		ID:         id,
		MarkerID:   markerID,
		ImageType:  model.ImageTypeThumbnail,
		ImageURL:   fmt.Sprintf("https://cdn.example.com/markers/%d/%d.webp", markerID, id),
		ImageOrder: order,
		CreatedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Second),
	}
}
