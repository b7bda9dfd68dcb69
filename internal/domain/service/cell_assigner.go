package service

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/uber/h3-go/v4"
)

// CellAssigner 座標と解像度から空間セルIDを求める
// 同じ(座標, 解像度)には常に同じIDを返し、粗い解像度のセルは細かいセルを包含する
type CellAssigner interface {
	CellID(lat, lng float64, resolution int) string
	Scheme() string
}

// NewCellAssigner 方式名からCellAssignerを作成（h3 | quadtile）
func NewCellAssigner(scheme string) (CellAssigner, error) {
	switch scheme {
	case "", "h3":
		return H3CellAssigner{}, nil
	case "quadtile":
		return QuadtileCellAssigner{}, nil
	default:
		return nil, fmt.Errorf("未対応のセル方式です: %s", scheme)
	}
}

// H3CellAssigner 六角形階層インデックス(H3)によるセル割り当て
// 最細解像度のセルの親を取るため、解像度間の包含関係が厳密に保たれる
type H3CellAssigner struct{}

func (H3CellAssigner) Scheme() string { return "h3" }

func (H3CellAssigner) CellID(lat, lng float64, resolution int) string {
	resolution = clampResolution(resolution)
	cell := h3.LatLngToCell(h3.NewLatLng(lat, lng), FinestResolution)
	if resolution < FinestResolution {
		cell = cell.Parent(resolution)
	}
	return cell.String()
}

const maxMercatorLat = 85.05112878

// QuadtileCellAssigner Webメルカトルのタイル(z/x/y)によるセル割り当て
type QuadtileCellAssigner struct{}

// resolutionZoom 解像度ごとのタイルズームレベル（H3セルとおおよそ同じ大きさ）
var resolutionZoom = map[int]maptile.Zoom{
	3: 8,
	4: 10,
	5: 11,
	6: 12,
	7: 14,
	8: 15,
	9: 16,
}

func (QuadtileCellAssigner) Scheme() string { return "quadtile" }

func (QuadtileCellAssigner) CellID(lat, lng float64, resolution int) string {
	zoom := resolutionZoom[clampResolution(resolution)]
	// メルカトルの有効範囲外は端のタイルに寄せる
	if lat > maxMercatorLat {
		lat = maxMercatorLat
	} else if lat < -maxMercatorLat {
		lat = -maxMercatorLat
	}
	tile := maptile.At(orb.Point{lng, lat}, zoom)
	return fmt.Sprintf("%d/%d/%d", tile.Z, tile.X, tile.Y)
}

func clampResolution(resolution int) int {
	if resolution < CoarsestResolution {
		return CoarsestResolution
	}
	if resolution > FinestResolution {
		return FinestResolution
	}
	return resolution
}
