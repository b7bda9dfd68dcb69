package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bigpicture-backend/internal/config"
	"bigpicture-backend/internal/domain/model"
	"bigpicture-backend/internal/domain/repository"
	"bigpicture-backend/internal/domain/service"
	"bigpicture-backend/internal/infrastructure/metrics"
)

type MarkerClusterUseCase interface {
	// GetClusters 表示領域のマーカーをクラスタにまとめて返す。my=true は userID が必須
	GetClusters(ctx context.Context, req *model.ClusterRequest, userID *int64) (*model.ClustersResponse, error)

	// ListMarkerImages 1マーカー分の画像一覧を返す
	ListMarkerImages(ctx context.Context, markerID int64) ([]model.MarkerImage, error)
}

// markerClusterUseCaseImpl はMarkerClusterUseCaseの実装
type markerClusterUseCaseImpl struct {
	clusterService service.ClusterService
	imagesRepo     repository.MarkerImagesRepository
	limits         config.ClusterConfig
	logger         zerolog.Logger
}

// NewMarkerClusterUseCase は新しいMarkerClusterUseCaseインスタンスを作成
func NewMarkerClusterUseCase(
	clusterService service.ClusterService,
	imagesRepo repository.MarkerImagesRepository,
	limits config.ClusterConfig,
	logger zerolog.Logger,
) MarkerClusterUseCase {
	return &markerClusterUseCaseImpl{
		clusterService: clusterService,
		imagesRepo:     imagesRepo,
		limits:         limits,
		logger:         logger,
	}
}

func (u *markerClusterUseCaseImpl) GetClusters(ctx context.Context, req *model.ClusterRequest, userID *int64) (*model.ClustersResponse, error) {
	log := u.loggerFor(ctx)
	started := time.Now()

	filter := req.Filter
	filter.OwnerID = nil
	if req.My {
		if userID == nil {
			return nil, fmt.Errorf("%w: my=true にはログインが必要です", model.ErrUnauthorized)
		}
		owner := *userID
		filter.OwnerID = &owner
	}

	query := model.MarkerQuery{
		Viewport: req.Viewport,
		Filter:   filter,
		Sort:     model.NormalizeSort(req.SortBy, req.SortOrder),
		Limit:    model.NormalizeLimit(req.Limit, u.limits.DefaultLimit, u.limits.MaxLimit),
	}

	log.Debug().
		Float64("lat", req.Viewport.Lat).
		Float64("lng", req.Viewport.Lng).
		Float64("lat_delta", req.Viewport.LatDelta).
		Float64("lng_delta", req.Viewport.LngDelta).
		Str("sort", string(query.Sort.Column)+" "+string(query.Sort.Direction)).
		Int("limit", query.Limit).
		Bool("my", req.My).
		Msg("🗺️ クラスタ取得開始")

	response, err := u.clusterService.GetClusters(ctx, query, userID)
	if err != nil {
		if errors.Is(err, model.ErrStoreUnavailable) {
			metrics.StoreErrors.WithLabelValues("query_markers").Inc()
			log.Error().Err(err).Msg("❌ マーカーストアに接続できません")
		}
		return nil, err
	}

	response.Zoom = req.Zoom

	markerCount := 0
	for _, c := range response.Clusters {
		markerCount += c.Count
	}
	metrics.RecordCluster(clusterMode(response), time.Since(started), markerCount, response.Count)

	log.Info().
		Int("markers", markerCount).
		Int("clusters", response.Count).
		Int("resolution", response.Resolution).
		Bool("ungrouped", response.Ungrouped).
		Dur("elapsed", time.Since(started)).
		Msg("✅ クラスタ取得完了")

	return response, nil
}

func (u *markerClusterUseCaseImpl) ListMarkerImages(ctx context.Context, markerID int64) ([]model.MarkerImage, error) {
	images, err := u.imagesRepo.ListImages(ctx, markerID)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("list_images").Inc()
		u.loggerFor(ctx).Error().Err(err).Int64("marker_id", markerID).Msg("❌ マーカー画像の取得に失敗")
		return nil, fmt.Errorf("マーカー画像の取得に失敗: %w", model.NewStoreError("list_images", err))
	}
	if images == nil {
		images = []model.MarkerImage{}
	}
	return images, nil
}

// loggerFor リクエストロガー（request_id付き）があればそれを使う
func (u *markerClusterUseCaseImpl) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &u.logger
}

func clusterMode(resp *model.ClustersResponse) string {
	switch {
	case resp.Count == 0:
		return "empty"
	case resp.Ungrouped:
		return "ungrouped"
	default:
		return "grouped"
	}
}
