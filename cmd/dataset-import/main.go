// 数据导入工具：把配置中的 JSON 数据集整类写入 PostgreSQL，供 DATASET_FROM_PG=true 的服务读取
package main

import (
	"context"
	"os"
	"time"

	"passport-map/internal/category"
	"passport-map/internal/config"
	"passport-map/internal/dataset"
	"passport-map/internal/logger"
	"passport-map/internal/utils"
)

// 文档注释：导入流程
// 背景：数据集由运维以 JSON 维护；导入后多实例共享同一份数据，不再依赖本地文件。
// 约束：任一文件缺失即中止，避免部分类别被清空；整批在同一事务内提交。
func main() {
	cfg, err := config.Load()
	l := logger.Setup()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	var sets []category.Dataset
	for _, d := range cfg.Datasets {
		ds, err := dataset.LoadFile(dataset.Source{Category: category.ParseCategory(d.Category), Path: d.Path})
		if err != nil {
			l.Error("dataset_load_error", "path", d.Path, "err", err)
			os.Exit(1)
		}
		l.Info("dataset_load_ok", "path", d.Path, "category", ds.Category.String(), "rows", len(ds.Rows))
		sets = append(sets, ds)
	}

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := dataset.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	n, err := dataset.ImportPostgres(ctx, db, sets)
	if err != nil {
		l.Error("dataset_import_error", "err", err)
		os.Exit(1)
	}
	l.Info("dataset_import_done", "rows", n)
}
