package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bigpicture-backend/internal/config"
	"bigpicture-backend/internal/domain/model"
	"bigpicture-backend/internal/domain/service"
	"bigpicture-backend/internal/infrastructure/auth"
	"bigpicture-backend/internal/repository"
	"bigpicture-backend/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

type fakeDB struct{ err error }

func (f fakeDB) HealthCheck(ctx context.Context) error { return f.err }

// newTestRouter メモリストアで実際のパイプラインを組み立てる
func newTestRouter(t *testing.T, db HealthChecker) *gin.Engine {
	t.Helper()

	store := repository.NewMemoryMarkersRepository()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	owner := int64(7)
	store.AddMarker(model.Marker{ID: 1, Latitude: 37.5000, Longitude: 127.0000, EmotionTag: "happy", Likes: 3, CreatedAt: base, MemberID: &owner})
	store.AddMarker(model.Marker{ID: 2, Latitude: 37.5010, Longitude: 127.0010, EmotionTag: "sad", Likes: 8, CreatedAt: base.Add(time.Minute)})
	store.AddMarker(model.Marker{ID: 3, Latitude: 37.5020, Longitude: 127.0020, EmotionTag: "happy", Likes: 1, CreatedAt: base.Add(2 * time.Minute), MemberID: &owner})
	store.AddMarker(model.Marker{ID: 4, Latitude: 35.1796, Longitude: 129.0756, EmotionTag: "happy", CreatedAt: base})
	store.AddImage(model.MarkerImage{ID: 11, MarkerID: 1, ImageType: model.ImageTypeDetail, ImageURL: "https://cdn.example.com/1-b.webp", ImageOrder: 1, CreatedAt: base})
	store.AddImage(model.MarkerImage{ID: 10, MarkerID: 1, ImageType: model.ImageTypeThumbnail, ImageURL: "https://cdn.example.com/1-a.webp", ImageOrder: 0, IsPrimary: true, CreatedAt: base})

	svc := service.NewClusterService(
		store,
		service.NewClusterReducer(service.H3CellAssigner{}, 2),
		service.NewImageEnricher(store, zerolog.Nop(), 0),
		zerolog.Nop(),
	)
	uc := usecase.NewMarkerClusterUseCase(svc, store, config.ClusterConfig{DefaultLimit: 1000, MaxLimit: 5000}, zerolog.Nop())

	validator, err := auth.NewJWTValidator(testSecret)
	require.NoError(t, err)

	return NewRouter(RouterDeps{
		ClusterUseCase: uc,
		DB:             db,
		JWTValidator:   validator,
		Logger:         zerolog.Nop(),
		RequestTimeout: 5 * time.Second,
	})
}

func doGet(router *gin.Engine, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeClusters(t *testing.T, w *httptest.ResponseRecorder) model.ClustersResponse {
	t.Helper()
	var resp model.ClustersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetClusters_Grouped(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doGet(router, "/api/markers/clusters?lat=37.5&lng=127.0&lat_delta=0.3&lng_delta=0.3&zoom=11", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeClusters(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, 5, resp.Resolution)
	assert.False(t, resp.Ungrouped)
	require.NotNil(t, resp.Zoom)
	assert.Equal(t, 11, *resp.Zoom)
	require.NotEmpty(t, resp.Clusters)
	assert.Equal(t, len(resp.Clusters), resp.Count)

	// セル境界に関わらず、件数で重み付けした重心は全マーカーの平均になる
	var ids []int64
	var total int
	var sumLat, sumLng float64
	for _, c := range resp.Clusters {
		require.NotNil(t, c.CellID)
		ids = append(ids, c.MarkerIDs...)
		total += c.Count
		sumLat += c.CentroidLat * float64(c.Count)
		sumLng += c.CentroidLng * float64(c.Count)
	}
	assert.Equal(t, 3, total)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
	assert.InDelta(t, 37.501, sumLat/3, 1e-9)
	assert.InDelta(t, 127.001, sumLng/3, 1e-9)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestGetClusters_JSONShape(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doGet(router, "/api/markers/clusters?lat=37.5&lng=127.0&lat_delta=0.005&lng_delta=0.005", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, key := range []string{"success", "clusters", "count", "resolution", "ungrouped", "zoom"} {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["zoom"])
	assert.Equal(t, true, raw["ungrouped"])

	clusters := raw["clusters"].([]any)
	require.NotEmpty(t, clusters)
	first := clusters[0].(map[string]any)
	assert.Nil(t, first["cell_id"])
	for _, key := range []string{"centroid_lat", "centroid_lng", "count", "marker_ids", "markers"} {
		assert.Contains(t, first, key)
	}
	m := first["markers"].([]any)[0].(map[string]any)
	for _, key := range []string{"id", "latitude", "longitude", "emotion_tag", "images", "isMine"} {
		assert.Contains(t, m, key)
	}
	assert.NotNil(t, m["images"])
}

func TestGetClusters_UngroupedWithImages(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doGet(router, "/api/markers/clusters?lat=37.5&lng=127.0&lat_delta=0.005&lng_delta=0.005&sort_by=created_at&sort_order=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeClusters(t, w)
	assert.True(t, resp.Ungrouped)
	require.Equal(t, 3, resp.Count)
	for _, c := range resp.Clusters {
		assert.Nil(t, c.CellID)
		assert.Equal(t, 1, c.Count)
	}
	assert.Equal(t, []int64{1}, resp.Clusters[0].MarkerIDs)

	images := resp.Clusters[0].Markers[0].Images
	require.Len(t, images, 2)
	assert.Equal(t, int64(10), images[0].ID)
	assert.Equal(t, int64(11), images[1].ID)
	assert.Empty(t, resp.Clusters[1].Markers[0].Images)
}

func TestGetClusters_Filters(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doGet(router, "/api/markers/clusters?lat=37.5&lng=127.0&lat_delta=0.005&lng_delta=0.005&emotion_tags=happy,unknown&min_likes=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeClusters(t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, []int64{1}, resp.Clusters[0].MarkerIDs)
}

func TestGetClusters_Empty(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doGet(router, "/api/markers/clusters?lat=-33.86&lng=151.2&lat_delta=0.1&lng_delta=0.1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeClusters(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Clusters)
	assert.Contains(t, w.Body.String(), `"clusters":[]`)
}

func TestGetClusters_BadRequest(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name  string
		query string
	}{
		{"latなし", "lng=127&lat_delta=0.1&lng_delta=0.1"},
		{"latが数値でない", "lat=abc&lng=127&lat_delta=0.1&lng_delta=0.1"},
		{"deltaが0", "lat=37.5&lng=127&lat_delta=0&lng_delta=0.1"},
		{"deltaが負", "lat=37.5&lng=127&lat_delta=0.1&lng_delta=-1"},
		{"緯度範囲外", "lat=95&lng=127&lat_delta=0.1&lng_delta=0.1"},
		{"min_likesが整数でない", "lat=37.5&lng=127&lat_delta=0.1&lng_delta=0.1&min_likes=many"},
		{"limitが整数でない", "lat=37.5&lng=127&lat_delta=0.1&lng_delta=0.1&limit=1.5"},
		{"latがNaN", "lat=NaN&lng=127&lat_delta=0.1&lng_delta=0.1"},
		{"lat_deltaがInf", "lat=37.5&lng=127&lat_delta=Inf&lng_delta=0.1"},
		{"lng_deltaが-Inf", "lat=37.5&lng=127&lat_delta=0.1&lng_delta=-Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(router, "/api/markers/clusters?"+tt.query, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)

			body := decodeError(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, http.StatusBadRequest, body.Error.Code)
			assert.Equal(t, "Bad Request", body.Error.Status)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestGetClusters_UnknownSortFallsBack(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doGet(router, "/api/markers/clusters?lat=37.5&lng=127.0&lat_delta=0.005&lng_delta=0.005&sort_by=password&sort_order=sideways", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeClusters(t, w)
	require.Equal(t, 3, resp.Count)
	// created_at DESC
	assert.Equal(t, []int64{3}, resp.Clusters[0].MarkerIDs)
}

func TestGetClusters_Auth(t *testing.T) {
	router := newTestRouter(t, nil)
	query := "/api/markers/clusters?lat=37.5&lng=127.0&lat_delta=0.005&lng_delta=0.005"

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	bearer := http.Header{"Authorization": []string{"Bearer " + token}}

	t.Run("my=trueは未ログインだと401", func(t *testing.T) {
		w := doGet(router, query+"&my=true", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeError(t, w).Error.Status)
	})

	t.Run("不正なトークンは401", func(t *testing.T) {
		w := doGet(router, query, http.Header{"Authorization": []string{"Bearer not-a-token"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("my=trueは自分のマーカーのみ", func(t *testing.T) {
		w := doGet(router, query+"&my=true", bearer)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeClusters(t, w)
		require.Equal(t, 2, resp.Count)
		for _, c := range resp.Clusters {
			assert.True(t, c.Markers[0].IsMine)
		}
	})

	t.Run("ログイン中はisMineが付く", func(t *testing.T) {
		w := doGet(router, query, bearer)
		require.Equal(t, http.StatusOK, w.Code)

		mine := map[int64]bool{}
		for _, c := range decodeClusters(t, w).Clusters {
			mine[c.Markers[0].ID] = c.Markers[0].IsMine
		}
		assert.Equal(t, map[int64]bool{1: true, 2: false, 3: true}, mine)
	})
}

func TestGetMarkerImages(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doGet(router, "/api/markers/1/images", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                `json:"success"`
		Images  []model.MarkerImage `json:"images"`
		Count   int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, int64(10), body.Images[0].ID)

	w = doGet(router, "/api/markers/abc/images", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmotions(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doGet(router, "/api/emotions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, len(model.EmotionTags), list.Count)

	w = doGet(router, "/api/emotions/"+model.EmotionTags[0].ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGet(router, "/api/emotions/no-such-emotion", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	t.Run("DBなし", func(t *testing.T) {
		router := newTestRouter(t, nil)
		w := doGet(router, "/api/health", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","service":"bigpicture-backend"}`, w.Body.String())
	})

	t.Run("DB障害", func(t *testing.T) {
		router := newTestRouter(t, fakeDB{err: errors.New("connection refused")})
		w := doGet(router, "/api/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("バナーとメトリクス", func(t *testing.T) {
		router := newTestRouter(t, fakeDB{})
		assert.Equal(t, http.StatusOK, doGet(router, "/", nil).Code)

		w := doGet(router, "/metrics", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "bigpicture_api_requests_total")
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(model.ErrInvalidViewport))
	assert.Equal(t, http.StatusUnauthorized, statusFor(model.ErrUnauthorized))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(model.NewStoreError("query_markers", errors.New("down"))))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
