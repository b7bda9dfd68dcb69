package service

import "bigpicture-backend/internal/domain/model"

// AssembleClusters 集計結果に画像と所有フラグを付与して出力用クラスタにする
// userIDがnilの場合 isMine は常にfalse
func AssembleClusters(skeletons []model.ClusterSkeleton, markers []model.Marker, images map[int64][]model.MarkerImage, userID *int64) []model.Cluster {
	clusters := make([]model.Cluster, 0, len(skeletons))

	for _, sk := range skeletons {
		members := make([]model.ClusterMarker, 0, len(sk.Members))
		for _, idx := range sk.Members {
			m := markers[idx]

			imgs, ok := images[m.ID]
			if !ok || imgs == nil {
				imgs = []model.MarkerImage{}
			}

			members = append(members, model.ClusterMarker{
				Marker: m,
				Images: imgs,
				IsMine: userID != nil && m.IsOwnedBy(*userID),
			})
		}

		clusters = append(clusters, model.Cluster{
			CellID:      sk.CellID,
			CentroidLat: sk.CentroidLat,
			CentroidLng: sk.CentroidLng,
			Count:       sk.Count,
			MarkerIDs:   sk.MarkerIDs,
			Markers:     members,
		})
	}

	return clusters
}
