package repository

import (
	"context"

	"bigpicture-backend/internal/domain/model"
)

// MarkersRepository 表示領域内のマーカーを検索するストア
type MarkersRepository interface {
	// QueryMarkers 20%拡張した表示領域内のマーカーを絞り込み・並び替え・件数制限して返す
	// 失敗時は *model.StoreError を返す
	QueryMarkers(ctx context.Context, query model.MarkerQuery) ([]model.Marker, error)
}

// MarkerImagesRepository マーカー画像を取得するストア
type MarkerImagesRepository interface {
	// ListImages マーカーの画像を image_order, created_at 昇順で返す
	// 画像がない（マーカーがない）場合は空スライス、接続エラー時のみ *model.StoreError
	ListImages(ctx context.Context, markerID int64) ([]model.MarkerImage, error)
}
