package service

import "bigpicture-backend/internal/domain/model"

const (
	// CoarsestResolution 最も粗いセル解像度
	CoarsestResolution = 3
	// FinestResolution 最も細かいセル解像度。これ以上はグルーピングしない
	FinestResolution = 9

	// ungroupedSpan 緯度幅・経度幅の両方がこれ未満なら個別表示
	ungroupedSpan = 0.01
)

// precisionThresholds 表示幅（大きい方）に対する解像度。上から順に評価
var precisionThresholds = []struct {
	span       float64
	resolution int
}{
	{2.0, CoarsestResolution},
	{0.5, 4},
	{0.1, 5},
	{0.03, 8},
}

// SelectPrecision バッファ適用前の表示幅からセル解像度を決める
func SelectPrecision(latSpan, lngSpan float64) int {
	span := latSpan
	if lngSpan > span {
		span = lngSpan
	}
	for _, th := range precisionThresholds {
		if span > th.span {
			return th.resolution
		}
	}
	return FinestResolution
}

// IsUngrouped 個別表示モードかどうか
func IsUngrouped(resolution int, latSpan, lngSpan float64) bool {
	return resolution >= FinestResolution || (latSpan < ungroupedSpan && lngSpan < ungroupedSpan)
}

// PlanClusters 表示領域からグルーピング方針を決める
func PlanClusters(v model.Viewport) model.ClusterPlan {
	resolution := SelectPrecision(v.LatDelta, v.LngDelta)
	return model.ClusterPlan{
		Resolution: resolution,
		Ungrouped:  IsUngrouped(resolution, v.LatDelta, v.LngDelta),
	}
}
