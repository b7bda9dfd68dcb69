package service

import (
	"context"
	"runtime"
	"sync"

	"bigpicture-backend/internal/domain/model"
)

// ClusterReducer セル割り当てとクラスタ集計をCPUコア数のワーカープールで並行実行する
type ClusterReducer struct {
	assigner CellAssigner
	workers  int
}

// NewClusterReducer 新しいClusterReducerを作成（workers<=0 ならGOMAXPROCS）
func NewClusterReducer(assigner CellAssigner, workers int) *ClusterReducer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ClusterReducer{
		assigner: assigner,
		workers:  workers,
	}
}

// Scheme 使用中のセル方式名
func (r *ClusterReducer) Scheme() string {
	return r.assigner.Scheme()
}

// cellGroup 同じセルに属するマーカーの添字
type cellGroup struct {
	cellID  string
	members []int
}

// indexedSkeleton 集計結果と元のグループ位置
type indexedSkeleton struct {
	index    int
	skeleton model.ClusterSkeleton
}

// Reduce マーカーをセルごとにまとめ、重心・件数・ID一覧を求める
// 全マーカーはちょうど1つのクラスタに入る
func (r *ClusterReducer) Reduce(ctx context.Context, markers []model.Marker, plan model.ClusterPlan) ([]model.ClusterSkeleton, error) {
	if len(markers) == 0 {
		return []model.ClusterSkeleton{}, nil
	}
	if plan.Ungrouped {
		return singletonClusters(markers), nil
	}

	cells, err := r.assignCells(ctx, markers, plan.Resolution)
	if err != nil {
		return nil, err
	}

	return r.aggregate(ctx, markers, groupByCell(cells))
}

// singletonClusters 個別表示モード：各マーカーを count=1 のクラスタにする
func singletonClusters(markers []model.Marker) []model.ClusterSkeleton {
	skeletons := make([]model.ClusterSkeleton, len(markers))
	for i := range markers {
		skeletons[i] = model.ClusterSkeleton{
			CellID:      nil,
			CentroidLat: markers[i].Latitude,
			CentroidLng: markers[i].Longitude,
			Count:       1,
			MarkerIDs:   []int64{markers[i].ID},
			Members:     []int{i},
		}
	}
	return skeletons
}

// assignCells マーカーを連続区間に分割し、各ワーカーが自分の区間のセルIDを書き込む
func (r *ClusterReducer) assignCells(ctx context.Context, markers []model.Marker, resolution int) ([]string, error) {
	cells := make([]string, len(markers))

	workers := r.workers
	if workers > len(markers) {
		workers = len(markers)
	}
	chunk := (len(markers) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(markers); start += chunk {
		end := start + chunk
		if end > len(markers) {
			end = len(markers)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if i%256 == 0 && ctx.Err() != nil {
					return
				}
				cells[i] = r.assigner.CellID(markers[i].Latitude, markers[i].Longitude, resolution)
			}
		}(start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cells, nil
}

// groupByCell セルIDごとに添字をまとめる（グループ順は初出順、グループ内はストア順）
func groupByCell(cells []string) []cellGroup {
	positions := make(map[string]int)
	var groups []cellGroup

	for i, cellID := range cells {
		pos, ok := positions[cellID]
		if !ok {
			pos = len(groups)
			positions[cellID] = pos
			groups = append(groups, cellGroup{cellID: cellID})
		}
		groups[pos].members = append(groups[pos].members, i)
	}
	return groups
}

// aggregate 各セルの集計をワーカーに振り分け、結果をチャネルで回収する
func (r *ClusterReducer) aggregate(ctx context.Context, markers []model.Marker, groups []cellGroup) ([]model.ClusterSkeleton, error) {
	workers := r.workers
	if workers > len(groups) {
		workers = len(groups)
	}

	jobs := make(chan int)
	results := make(chan indexedSkeleton, len(groups))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- indexedSkeleton{index: idx, skeleton: summarizeCell(markers, groups[idx])}
			}
		}()
	}

	// 別のgoroutineでジョブを投入し、完了後にチャネルを閉じる
	go func() {
		defer close(jobs)
		for idx := range groups {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	skeletons := make([]model.ClusterSkeleton, len(groups))
	for res := range results {
		skeletons[res.index] = res.skeleton
	}

	// キャンセル時は投入されなかったセルがあるため結果を捨てる
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return skeletons, nil
}

// summarizeCell 1セル分の件数・重心（単純平均）・ID一覧
func summarizeCell(markers []model.Marker, group cellGroup) model.ClusterSkeleton {
	var sumLat, sumLng float64
	ids := make([]int64, len(group.members))
	for i, idx := range group.members {
		sumLat += markers[idx].Latitude
		sumLng += markers[idx].Longitude
		ids[i] = markers[idx].ID
	}

	n := float64(len(group.members))
	cellID := group.cellID
	return model.ClusterSkeleton{
		CellID:      &cellID,
		CentroidLat: sumLat / n,
		CentroidLng: sumLng / n,
		Count:       len(group.members),
		MarkerIDs:   ids,
		Members:     group.members,
	}
}
