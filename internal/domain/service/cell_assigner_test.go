package service

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/h3-go/v4"
)

func TestNewCellAssigner(t *testing.T) {
	a, err := NewCellAssigner("h3")
	require.NoError(t, err)
	assert.Equal(t, "h3", a.Scheme())

	a, err = NewCellAssigner("")
	require.NoError(t, err)
	assert.Equal(t, "h3", a.Scheme())

	a, err = NewCellAssigner("quadtile")
	require.NoError(t, err)
	assert.Equal(t, "quadtile", a.Scheme())

	_, err = NewCellAssigner("s2")
	assert.Error(t, err)
}

func TestH3CellAssigner(t *testing.T) {
	a := H3CellAssigner{}

	t.Run("同じ座標と解像度は同じセル", func(t *testing.T) {
		assert.Equal(t, a.CellID(37.5665, 126.9780, 5), a.CellID(37.5665, 126.9780, 5))
	})

	t.Run("離れた座標は別のセル", func(t *testing.T) {
		assert.NotEqual(t, a.CellID(37.5665, 126.9780, 5), a.CellID(35.1796, 129.0756, 5))
	})

	t.Run("粗い解像度のセルは細かいセルの親", func(t *testing.T) {
		fine := h3.LatLngToCell(h3.NewLatLng(37.5665, 126.9780), FinestResolution)
		for res := CoarsestResolution; res < FinestResolution; res++ {
			assert.Equal(t, fine.Parent(res).String(), a.CellID(37.5665, 126.9780, res), "res=%d", res)
		}
		assert.Equal(t, fine.String(), a.CellID(37.5665, 126.9780, FinestResolution))
	})

	t.Run("範囲外の解像度は丸める", func(t *testing.T) {
		assert.Equal(t, a.CellID(37.5, 127.0, CoarsestResolution), a.CellID(37.5, 127.0, 0))
		assert.Equal(t, a.CellID(37.5, 127.0, FinestResolution), a.CellID(37.5, 127.0, 15))
	})
}

func TestQuadtileCellAssigner(t *testing.T) {
	a := QuadtileCellAssigner{}

	t.Run("z/x/y形式", func(t *testing.T) {
		tile := maptile.At(orb.Point{127.0, 37.5}, 11)
		assert.Equal(t, fmt.Sprintf("11/%d/%d", tile.X, tile.Y), a.CellID(37.5, 127.0, 5))
	})

	t.Run("粗いタイルは細かいタイルを包含する", func(t *testing.T) {
		fine := maptile.At(orb.Point{127.0, 37.5}, resolutionZoom[FinestResolution])
		for res := CoarsestResolution; res < FinestResolution; res++ {
			zoom := resolutionZoom[res]
			shift := uint32(resolutionZoom[FinestResolution] - zoom)
			want := fmt.Sprintf("%d/%d/%d", zoom, fine.X>>shift, fine.Y>>shift)
			assert.Equal(t, want, a.CellID(37.5, 127.0, res), "res=%d", res)
		}
	})

	t.Run("極付近でも割り当てできる", func(t *testing.T) {
		north := a.CellID(90, 0, 5)
		assert.Equal(t, a.CellID(maxMercatorLat, 0, 5), north)
		assert.NotEqual(t, north, a.CellID(-90, 0, 5))
	})
}
