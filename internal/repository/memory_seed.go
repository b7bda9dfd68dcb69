package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"bigpicture-backend/internal/domain/model"
)

// memorySeed シードファイルの形式
// {"markers": [Marker...], "images": [MarkerImage...]}
type memorySeed struct {
	Markers []model.Marker      `json:"markers"`
	Images  []model.MarkerImage `json:"images"`
}

// LoadSeed JSONのマーカーと画像をストアに追加し、件数を返す
func (r *MemoryMarkersRepository) LoadSeed(rd io.Reader) (markers, images int, err error) {
	var seed memorySeed
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return 0, 0, fmt.Errorf("シードデータの解析に失敗: %w", err)
	}

	for i := range seed.Markers {
		m := seed.Markers[i]
		if err := (model.Viewport{Lat: m.Latitude, Lng: m.Longitude, LatDelta: 1, LngDelta: 1}).Validate(); err != nil {
			return 0, 0, fmt.Errorf("マーカー %d の座標が不正です: %w", m.ID, err)
		}
	}

	for _, m := range seed.Markers {
		r.AddMarker(m)
	}
	for _, img := range seed.Images {
		r.AddImage(img)
	}
	return len(seed.Markers), len(seed.Images), nil
}

// LoadSeedFile ファイルからシードを読み込む
func (r *MemoryMarkersRepository) LoadSeedFile(path string) (markers, images int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("シードファイルを開けません: %w", err)
	}
	defer f.Close()

	return r.LoadSeed(f)
}
