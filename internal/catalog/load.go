package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"golang.org/x/text/collate"

	"passport-map/internal/category"
	"passport-map/internal/dataset"
	"passport-map/internal/geometry"
	"passport-map/internal/logger"
	"passport-map/internal/metrics"
)

// Loader：从文件或 Postgres 读取数据集并构建目录；DB 非空时优先 Postgres
type Loader struct {
	Sources      []dataset.Source
	GeometryPath string
	DB           *sql.DB
	Collator     *collate.Collator

	mu sync.Mutex
}

// Load：边界文件读取失败与无任何数据集都视为错误
func (ld *Loader) Load(ctx context.Context) (*Catalog, error) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	geo, err := geometry.Load(ld.GeometryPath)
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	var sets []category.Dataset
	if ld.DB != nil {
		sets, err = dataset.LoadPostgres(ctx, ld.DB)
		if err == nil && len(sets) == 0 {
			err = dataset.ErrNoDatasets
		}
	} else {
		sets, err = dataset.LoadFiles(ld.Sources)
	}
	if err != nil {
		return nil, fmt.Errorf("datasets: %w", err)
	}
	return Build(sets, geo, ld.Collator), nil
}

// Reload：构建成功才替换，失败保留旧目录
func (ld *Loader) Reload(ctx context.Context, h *Holder) error {
	c, err := ld.Load(ctx)
	if err != nil {
		metrics.CatalogReloadsTotal.WithLabelValues("error").Inc()
		return err
	}
	h.Store(c)
	metrics.CatalogReloadsTotal.WithLabelValues("ok").Inc()
	logger.L().Info("catalog_reload_ok", "countries", len(c.Categories), "built_at", c.BuiltAt)
	return nil
}

// Paths：需要轮询的文件（Postgres 模式下只有边界文件）
func (ld *Loader) Paths() []string {
	out := []string{ld.GeometryPath}
	if ld.DB != nil {
		return out
	}
	for _, s := range ld.Sources {
		out = append(out, s.Path)
	}
	return out
}
