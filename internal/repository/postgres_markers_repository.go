package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"bigpicture-backend/internal/domain/model"
	"bigpicture-backend/internal/domain/repository"
	"bigpicture-backend/internal/infrastructure/database"
)

const markerColumns = `
	m.id,
	ST_Y(m.location::geometry) AS latitude,
	ST_X(m.location::geometry) AS longitude,
	m.emotion_tag,
	COALESCE(m.description, '') AS description,
	m.likes, m.dislikes, m.views,
	COALESCE(m.author, '') AS author,
	m.thumbnail_img, m.member_id,
	m.created_at, m.updated_at`

const imagesQuery = `
	SELECT id, marker_id, image_type, image_url, image_order, is_primary, created_at, updated_at
	FROM bigpicture.marker_images
	WHERE marker_id = $1
	ORDER BY image_order ASC, created_at ASC`

// sortColumnSQL ホワイトリスト済みカラムとSQL式の対応
var sortColumnSQL = map[model.SortColumn]string{
	model.SortByCreatedAt: "m.created_at",
	model.SortByLikes:     "m.likes",
	model.SortByViews:     "m.views",
	model.SortByDislikes:  "m.dislikes",
}

type PostgresMarkersRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresMarkersRepository(client *database.PostgreSQLClient) *PostgresMarkersRepository {
	return &PostgresMarkersRepository{
		client: client,
	}
}

var (
	_ repository.MarkersRepository      = (*PostgresMarkersRepository)(nil)
	_ repository.MarkerImagesRepository = (*PostgresMarkersRepository)(nil)
)

// markerRow SELECT結果を受け取るための構造体
type markerRow struct {
	ID           int64
	Latitude     float64
	Longitude    float64
	EmotionTag   string
	Description  string
	Likes        int
	Dislikes     int
	Views        int
	Author       string
	ThumbnailImg sql.NullString
	MemberID     sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ToMarker markerRowをmodel.Markerに変換
func (r *markerRow) ToMarker() model.Marker {
	marker := model.Marker{
		ID:          r.ID,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		EmotionTag:  r.EmotionTag,
		Description: r.Description,
		Likes:       r.Likes,
		Dislikes:    r.Dislikes,
		Views:       r.Views,
		Author:      r.Author,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.ThumbnailImg.Valid {
		thumb := r.ThumbnailImg.String
		marker.ThumbnailImg = &thumb
	}
	if r.MemberID.Valid {
		memberID := r.MemberID.Int64
		marker.MemberID = &memberID
	}
	return marker
}

// buildMarkersQuery 表示領域とフィルタからSQLと引数を組み立てる
func buildMarkersQuery(q model.MarkerQuery) (string, []any) {
	bound := ViewportToBound(q.Viewport)

	var sb strings.Builder
	args := []any{BoundToWKT(bound)}

	sb.WriteString("SELECT")
	sb.WriteString(markerColumns)
	sb.WriteString("\n\tFROM bigpicture.markers m")
	sb.WriteString("\n\tWHERE ST_Intersects(m.location::geometry, ST_GeomFromText($1, 4326))")

	if len(q.Filter.EmotionTags) > 0 {
		args = append(args, pq.Array(q.Filter.EmotionTags))
		fmt.Fprintf(&sb, "\n\tAND m.emotion_tag = ANY($%d)", len(args))
	}
	if q.Filter.MinLikes != nil {
		args = append(args, *q.Filter.MinLikes)
		fmt.Fprintf(&sb, "\n\tAND m.likes >= $%d", len(args))
	}
	if q.Filter.MinViews != nil {
		args = append(args, *q.Filter.MinViews)
		fmt.Fprintf(&sb, "\n\tAND m.views >= $%d", len(args))
	}
	if q.Filter.OwnerID != nil {
		args = append(args, *q.Filter.OwnerID)
		fmt.Fprintf(&sb, "\n\tAND m.member_id = $%d", len(args))
	}

	// 呼び出し側で正規化済みでも、SQLに入るのはホワイトリストの値のみ
	sort := model.NormalizeSort(string(q.Sort.Column), string(q.Sort.Direction))
	dir := "DESC"
	if sort.Direction == model.SortAsc {
		dir = "ASC"
	}
	fmt.Fprintf(&sb, "\n\tORDER BY %s %s, m.id %s", sortColumnSQL[sort.Column], dir, dir)

	args = append(args, model.NormalizeLimit(q.Limit, model.DefaultMarkerLimit, 0))
	fmt.Fprintf(&sb, "\n\tLIMIT $%d", len(args))

	return sb.String(), args
}

// QueryMarkers 表示領域内のマーカーをPostGISで検索
func (r *PostgresMarkersRepository) QueryMarkers(ctx context.Context, q model.MarkerQuery) ([]model.Marker, error) {
	query, args := buildMarkersQuery(q)

	rows, err := r.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.NewStoreError("query_markers", fmt.Errorf("表示領域内マーカー検索失敗: %w", err))
	}
	defer rows.Close()

	markers := make([]model.Marker, 0)
	for rows.Next() {
		var row markerRow
		err := rows.Scan(&row.ID, &row.Latitude, &row.Longitude, &row.EmotionTag, &row.Description,
			&row.Likes, &row.Dislikes, &row.Views, &row.Author, &row.ThumbnailImg, &row.MemberID,
			&row.CreatedAt, &row.UpdatedAt)
		if err != nil {
			return nil, model.NewStoreError("query_markers", fmt.Errorf("マーカーデータスキャンエラー: %w", err))
		}
		markers = append(markers, row.ToMarker())
	}

	if err := rows.Err(); err != nil {
		return nil, model.NewStoreError("query_markers", fmt.Errorf("行イテレーション中のエラー: %w", err))
	}

	return markers, nil
}

// ListImages マーカーの画像一覧を取得
func (r *PostgresMarkersRepository) ListImages(ctx context.Context, markerID int64) ([]model.MarkerImage, error) {
	rows, err := r.client.DB.QueryContext(ctx, imagesQuery, markerID)
	if err != nil {
		return nil, model.NewStoreError("list_images", fmt.Errorf("マーカー %d の画像取得失敗: %w", markerID, err))
	}
	defer rows.Close()

	images := make([]model.MarkerImage, 0)
	for rows.Next() {
		var img model.MarkerImage
		var imageType string
		err := rows.Scan(&img.ID, &img.MarkerID, &imageType, &img.ImageURL, &img.ImageOrder,
			&img.IsPrimary, &img.CreatedAt, &img.UpdatedAt)
		if err != nil {
			return nil, model.NewStoreError("list_images", fmt.Errorf("画像データスキャンエラー: %w", err))
		}
		img.ImageType = model.ImageType(imageType)
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, model.NewStoreError("list_images", fmt.Errorf("行イテレーション中のエラー: %w", err))
	}

	return images, nil
}
