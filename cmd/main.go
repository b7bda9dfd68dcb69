package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bigpicture-backend/internal/config"
	"bigpicture-backend/internal/domain/repository"
	"bigpicture-backend/internal/domain/service"
	"bigpicture-backend/internal/handler"
	"bigpicture-backend/internal/infrastructure/auth"
	"bigpicture-backend/internal/infrastructure/database"
	"bigpicture-backend/internal/infrastructure/logging"
	repoImpl "bigpicture-backend/internal/repository"
	"bigpicture-backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", "console")
		bootLogger.Fatal().Err(err).Msg("設定の読み込みに失敗")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("依存関係の初期化に失敗")
	}
	defer cleanup()

	router := handler.NewRouter(deps)
	server := &http.Server{
		Addr:    cfg.ServerAddress(),
		Handler: router,
	}

	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("marker_store", cfg.Cluster.MarkerStore).
			Str("image_store", cfg.Cluster.ImageStore).
			Str("cell_scheme", cfg.Cluster.CellScheme).
			Int("workers", cfg.Cluster.Workers).
			Msg("🚀 BigPicture backend starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("サーバーの起動に失敗")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("🛑 シャットダウン中...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("グレースフルシャットダウンに失敗")
	}
	logger.Info().Msg("✅ サーバーを停止しました")
}

// buildDependencies ストア・サービス・ユースケースを組み立てる
func buildDependencies(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (handler.RouterDeps, func(), error) {
	cleanup := func() {}
	deps := handler.RouterDeps{
		Logger:         logger,
		RequestTimeout: cfg.Server.RequestTimeout,
	}

	var (
		markersRepo repository.MarkersRepository
		imagesRepo  repository.MarkerImagesRepository
	)

	var (
		pgStore  *repoImpl.PostgresMarkersRepository
		memStore *repoImpl.MemoryMarkersRepository
	)

	if cfg.Cluster.UsesStore(config.StorePostgres) {
		pgClient, err := database.NewPostgreSQLClientWithRetry(ctx, cfg.Database, logger)
		if err != nil {
			return deps, cleanup, err
		}
		logger.Info().Msg("✅ PostgreSQL connection successful")
		cleanup = func() {
			if err := pgClient.Close(); err != nil {
				logger.Error().Err(err).Msg("PostgreSQL接続のクローズに失敗")
			}
		}
		pgStore = repoImpl.NewPostgresMarkersRepository(pgClient)
		deps.DB = pgClient
	}

	if cfg.Cluster.UsesStore(config.StoreMemory) {
		logger.Warn().Msg("⚠️ メモリストアを使用します（データは永続化されません）")
		memStore = repoImpl.NewMemoryMarkersRepository()
		if cfg.Cluster.MemorySeedFile != "" {
			markers, images, err := memStore.LoadSeedFile(cfg.Cluster.MemorySeedFile)
			if err != nil {
				return deps, cleanup, err
			}
			logger.Info().
				Str("file", cfg.Cluster.MemorySeedFile).
				Int("markers", markers).
				Int("images", images).
				Msg("✅ メモリストアにシードを読み込みました")
		} else {
			logger.Warn().Msg("⚠️ MEMORY_SEED_FILE が未設定のためメモリストアは空です")
		}
	}

	if cfg.Cluster.MarkerStore == config.StoreMemory {
		markersRepo = memStore
	} else {
		markersRepo = pgStore
	}

	switch cfg.Cluster.ImageStore {
	case config.StoreMemory:
		imagesRepo = memStore
	case config.StoreSupabase:
		supabaseClient, err := database.NewSupabaseClient(cfg.Supabase)
		if err != nil {
			return deps, cleanup, err
		}
		imagesRepo = repoImpl.NewSupabaseMarkerImagesRepository(supabaseClient)
		logger.Info().Msg("✅ Supabase image store enabled")
	default:
		imagesRepo = pgStore
	}

	assigner, err := service.NewCellAssigner(cfg.Cluster.CellScheme)
	if err != nil {
		return deps, cleanup, err
	}

	logger.Info().Str("cell_scheme", assigner.Scheme()).Msg("セル方式を選択しました")

	clusterService := service.NewClusterService(
		markersRepo,
		service.NewClusterReducer(assigner, cfg.Cluster.Workers),
		service.NewImageEnricher(imagesRepo, logger, cfg.Cluster.ImageFetchCap),
		logger,
	)
	deps.ClusterUseCase = usecase.NewMarkerClusterUseCase(clusterService, imagesRepo, cfg.Cluster, logger)

	if cfg.Auth.JWTSecret != "" {
		validator, err := auth.NewJWTValidator(cfg.Auth.JWTSecret)
		if err != nil {
			return deps, cleanup, err
		}
		deps.JWTValidator = validator
	} else {
		logger.Warn().Msg("⚠️ JWT_SECRET が未設定のため認証なしで起動します（my=true は常に401）")
	}

	return deps, cleanup, nil
}
