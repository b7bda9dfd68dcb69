package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bigpicture-backend/internal/domain/model"
	"bigpicture-backend/internal/domain/repository"
)

// ClusterService 表示領域のマーカーをクラスタにまとめて返すサービス
type ClusterService interface {
	// GetClusters 検索 → セル割り当て・集計 と 画像取得 を並行実行し、両方の完了後に結果を組み立てる
	GetClusters(ctx context.Context, query model.MarkerQuery, userID *int64) (*model.ClustersResponse, error)
}

// clusterServiceImpl ClusterServiceの実装
type clusterServiceImpl struct {
	markersRepo repository.MarkersRepository
	reducer     *ClusterReducer
	enricher    *ImageEnricher
	logger      zerolog.Logger
}

// NewClusterService ClusterServiceの新しいインスタンスを作成
func NewClusterService(markersRepo repository.MarkersRepository, reducer *ClusterReducer, enricher *ImageEnricher, logger zerolog.Logger) ClusterService {
	return &clusterServiceImpl{
		markersRepo: markersRepo,
		reducer:     reducer,
		enricher:    enricher,
		logger:      logger,
	}
}

func (s *clusterServiceImpl) GetClusters(ctx context.Context, query model.MarkerQuery, userID *int64) (*model.ClustersResponse, error) {
	if err := query.Viewport.Validate(); err != nil {
		return nil, err
	}

	plan := PlanClusters(query.Viewport)

	markers, err := s.markersRepo.QueryMarkers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("マーカー検索失敗: %w", model.NewStoreError("query_markers", err))
	}

	response := &model.ClustersResponse{
		Success:    true,
		Clusters:   []model.Cluster{},
		Resolution: plan.Resolution,
		Ungrouped:  plan.Ungrouped,
	}
	if len(markers) == 0 {
		return response, nil
	}

	ids := make([]int64, len(markers))
	for i := range markers {
		ids[i] = markers[i].ID
	}

	// CPU処理（集計）とI/O処理（画像取得）は状態を共有しないので並行に走らせ、両方を待つ
	var (
		skeletons []model.ClusterSkeleton
		images    map[int64][]model.MarkerImage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		skeletons, err = s.reducer.Reduce(gctx, markers, plan)
		return err
	})
	g.Go(func() error {
		var err error
		images, err = s.enricher.Enrich(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("クラスタ生成が中断されました: %w", err)
	}

	response.Clusters = AssembleClusters(skeletons, markers, images, userID)
	response.Count = len(response.Clusters)

	s.logger.Debug().
		Int("markers", len(markers)).
		Int("clusters", response.Count).
		Int("resolution", plan.Resolution).
		Bool("ungrouped", plan.Ungrouped).
		Str("cell_scheme", s.reducer.Scheme()).
		Msg("クラスタ生成完了")

	return response, nil
}
