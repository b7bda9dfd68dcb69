package model

import "time"

// Marker 会員が地図上に残したマーカー（写真・感情タグ・テキスト）を表すモデル
type Marker struct {
	ID           int64     `json:"id" db:"id"`                       // マーカーID（ストアが採番）
	Latitude     float64   `json:"latitude" db:"latitude"`           // 緯度
	Longitude    float64   `json:"longitude" db:"longitude"`         // 経度
	EmotionTag   string    `json:"emotion_tag" db:"emotion_tag"`     // 感情タグID
	Description  string    `json:"description" db:"description"`     // 本文
	Likes        int       `json:"likes" db:"likes"`                 // いいね数
	Dislikes     int       `json:"dislikes" db:"dislikes"`           // よくないね数
	Views        int       `json:"views" db:"views"`                 // 閲覧数
	Author       string    `json:"author" db:"author"`               // 投稿者の表示名
	ThumbnailImg *string   `json:"thumbnail_img" db:"thumbnail_img"` // 旧形式のサムネイル（NULLABLE）
	MemberID     *int64    `json:"member_id" db:"member_id"`         // 所有者の会員ID（旧データはNULL）
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsOwnedBy マーカーが指定会員の所有かどうか
func (m *Marker) IsOwnedBy(memberID int64) bool {
	return m.MemberID != nil && *m.MemberID == memberID
}

// ImageType マーカー画像の種別
type ImageType string

const (
	ImageTypeThumbnail ImageType = "thumbnail"
	ImageTypeDetail    ImageType = "detail"
	ImageTypeGallery   ImageType = "gallery"
)

// MarkerImage マーカーに添付された画像
type MarkerImage struct {
	ID         int64     `json:"id" db:"id"`
	MarkerID   int64     `json:"marker_id" db:"marker_id"`
	ImageType  ImageType `json:"image_type" db:"image_type"`
	ImageURL   string    `json:"image_url" db:"image_url"`
	ImageOrder int       `json:"image_order" db:"image_order"` // 表示順（重複あり）
	IsPrimary  bool      `json:"is_primary" db:"is_primary"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
