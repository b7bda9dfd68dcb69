package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/supabase-community/postgrest-go"

	"bigpicture-backend/internal/domain/model"
	"bigpicture-backend/internal/domain/repository"
	"bigpicture-backend/internal/infrastructure/database"
)

// SupabaseMarkerImagesRepository PostgREST経由でマーカー画像を取得するリポジトリ
type SupabaseMarkerImagesRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseMarkerImagesRepository(client *database.SupabaseClient) repository.MarkerImagesRepository {
	return &SupabaseMarkerImagesRepository{
		client: client,
	}
}

func (r *SupabaseMarkerImagesRepository) ListImages(ctx context.Context, markerID int64) ([]model.MarkerImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.NewStoreError("list_images", err)
	}

	data, _, err := r.client.GetClient().From("marker_images").
		Select("id,marker_id,image_type,image_url,image_order,is_primary,created_at,updated_at", "", false).
		Eq("marker_id", strconv.FormatInt(markerID, 10)).
		Order("image_order", &postgrest.OrderOpts{Ascending: true}).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, model.NewStoreError("list_images", fmt.Errorf("マーカー %d の画像取得失敗: %w", markerID, err))
	}

	images := make([]model.MarkerImage, 0)
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, model.NewStoreError("list_images", fmt.Errorf("画像データのJSONアンマーシャル失敗: %w", err))
	}

	return images, nil
}
