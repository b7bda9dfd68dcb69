package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bigpicture-backend/internal/domain/model"
	"bigpicture-backend/internal/domain/repository"
	"bigpicture-backend/internal/infrastructure/metrics"
)

// ImageEnricher マーカーごとの画像一覧を並行取得する
type ImageEnricher struct {
	imagesRepo     repository.MarkerImagesRepository
	logger         zerolog.Logger
	maxConcurrency int // 0なら上限なし（マーカー数だけ同時に取得）
}

// NewImageEnricher 新しいImageEnricherを作成
func NewImageEnricher(imagesRepo repository.MarkerImagesRepository, logger zerolog.Logger, maxConcurrency int) *ImageEnricher {
	if maxConcurrency < 0 {
		maxConcurrency = 0
	}
	return &ImageEnricher{
		imagesRepo:     imagesRepo,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// imageResult 1マーカー分の取得結果
type imageResult struct {
	markerID int64
	images   []model.MarkerImage
}

// Enrich 全マーカーIDの画像を取得して marker_id → 画像一覧 を返す
// 個別の取得失敗は空スライスにしてログに残す。ctxが終了した場合のみエラーを返す
func (e *ImageEnricher) Enrich(ctx context.Context, markerIDs []int64) (map[int64][]model.MarkerImage, error) {
	ids := distinctIDs(markerIDs)
	out := make(map[int64][]model.MarkerImage, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	results := make(chan imageResult, len(ids))
	var g errgroup.Group
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}

	for _, id := range ids {
		markerID := id
		g.Go(func() error {
			results <- imageResult{markerID: markerID, images: e.fetch(ctx, markerID)}
			return nil
		})
	}

	// 別のgoroutineでwaitしてチャンネルを閉じる
	go func() {
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		out[res.markerID] = res.images
	}

	// 途中で中断された取得結果を他の応答に混ぜない
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// fetch 1マーカー分の画像を取得（失敗時は空スライス）
func (e *ImageEnricher) fetch(ctx context.Context, markerID int64) []model.MarkerImage {
	if ctx.Err() != nil {
		return []model.MarkerImage{}
	}

	images, err := e.imagesRepo.ListImages(ctx, markerID)
	if err != nil {
		if ctx.Err() == nil {
			metrics.ImageFetchFailures.Inc()
			e.logger.Warn().Err(err).Int64("marker_id", markerID).Msg("⚠️ マーカー画像の取得に失敗、空の一覧で続行")
		}
		return []model.MarkerImage{}
	}

	return sortImages(images)
}

// sortImages image_order昇順、同順位はcreated_at昇順
func sortImages(images []model.MarkerImage) []model.MarkerImage {
	sorted := make([]model.MarkerImage, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ImageOrder != sorted[j].ImageOrder {
			return sorted[i].ImageOrder < sorted[j].ImageOrder
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func distinctIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
