package model

// ClusterRequest クラスタ取得APIのリクエスト
type ClusterRequest struct {
	Viewport  Viewport
	Zoom      *int
	Filter    MarkerFilter
	SortBy    string
	SortOrder string
	Limit     int
	My        bool // 自分のマーカーのみ（認証必須）
}

// ClusterPlan 表示領域から決まるグルーピング方針
type ClusterPlan struct {
	Resolution int  `json:"resolution"`
	Ungrouped  bool `json:"ungrouped"` // trueなら全マーカーを単独クラスタとして返す
}

// ClusterSkeleton 画像付与前のクラスタ集計結果
type ClusterSkeleton struct {
	CellID      *string
	CentroidLat float64
	CentroidLng float64
	Count       int
	MarkerIDs   []int64
	// Members ストア結果スライス内の添字（ストアの並び順を保つ）
	Members []int
}

// ClusterMarker 画像と所有フラグを付与したマーカー
type ClusterMarker struct {
	Marker
	Images []MarkerImage `json:"images"`
	IsMine bool          `json:"isMine"`
}

// Cluster APIで返すクラスタ
type Cluster struct {
	CellID      *string         `json:"cell_id"`
	CentroidLat float64         `json:"centroid_lat"`
	CentroidLng float64         `json:"centroid_lng"`
	Count       int             `json:"count"`
	MarkerIDs   []int64         `json:"marker_ids"`
	Markers     []ClusterMarker `json:"markers"`
}

// ClustersResponse GET /api/markers/clusters のレスポンス
type ClustersResponse struct {
	Success    bool      `json:"success"`
	Clusters   []Cluster `json:"clusters"`
	Count      int       `json:"count"` // クラスタ数（マーカー総数ではない）
	Resolution int       `json:"resolution"`
	Ungrouped  bool      `json:"ungrouped"`
	Zoom       *int      `json:"zoom"`
}
