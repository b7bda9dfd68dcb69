package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"bigpicture-backend/internal/infrastructure/auth"
	"bigpicture-backend/internal/usecase"
)

const serviceName = "bigpicture-backend"

// RouterDeps ルーター構築に必要な依存
type RouterDeps struct {
	ClusterUseCase usecase.MarkerClusterUseCase
	// DB PostgreSQLを使わない構成ではnil
	DB HealthChecker
	// JWTValidator nil なら認証なし
	JWTValidator   *auth.JWTValidator
	Logger         zerolog.Logger
	RequestTimeout time.Duration
}

// NewRouter 全エンドポイントを登録したginエンジンを作成
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger))
	router.Use(Metrics())

	healthHandler := NewHealthHandler(deps.DB)
	emotionsHandler := NewEmotionsHandler()
	markersHandler := NewMarkersHandler(deps.ClusterUseCase)

	router.GET("/", healthHandler.Index)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		api.GET("/emotions", emotionsHandler.ListEmotions)
		api.GET("/emotions/:id", emotionsHandler.GetEmotion)

		markers := api.Group("/markers")
		markers.Use(Timeout(deps.RequestTimeout), OptionalAuth(deps.JWTValidator))
		{
			markers.GET("/clusters", markersHandler.GetClusters)
			markers.GET("/:id/images", markersHandler.GetMarkerImages)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "エンドポイントが見つかりません: "+c.Request.URL.Path)
	})

	return router
}
