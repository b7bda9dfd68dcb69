package repository

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"bigpicture-backend/internal/domain/model"
)

// ViewportToBound 表示領域を20%拡張した orb.Bound に変換
// 緯度は[-90,90]、経度は[-180,180]に切り詰める（日付変更線はまたがない）
func ViewportToBound(v model.Viewport) orb.Bound {
	halfLat := v.LatDelta / 2 * model.ViewportOverscan
	halfLng := v.LngDelta / 2 * model.ViewportOverscan

	bound := orb.Bound{
		Min: orb.Point{clamp(v.Lng-halfLng, -180, 180), clamp(v.Lat-halfLat, -90, 90)},
		Max: orb.Point{clamp(v.Lng+halfLng, -180, 180), clamp(v.Lat+halfLat, -90, 90)},
	}
	return bound
}

// BoundToWKT 境界ボックスをPostGISに渡すWKTポリゴン文字列に変換
func BoundToWKT(bound orb.Bound) string {
	return wkt.MarshalString(bound.ToPolygon())
}

// MarkerPoint マーカー位置を orb.Point [lng, lat] として返す
func MarkerPoint(m *model.Marker) orb.Point {
	return orb.Point{m.Longitude, m.Latitude}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
