// 离线出图工具：按当前数据集渲染整张分类地图（PNG 或 SVG），可选高亮一个国家
package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"passport-map/internal/camera"
	"passport-map/internal/catalog"
	"passport-map/internal/category"
	"passport-map/internal/config"
	"passport-map/internal/dataset"
	"passport-map/internal/logger"
	"passport-map/internal/mapview"
	"passport-map/internal/search"
)

// 文档注释：RENDER_OUT 指定输出文件（扩展名决定格式，默认 map.png）；RENDER_SELECT 为高亮国家三位码
// 约束：相机使用默认视图；高亮国家存在质心时以选择缩放居中
func main() {
	cfg, err := config.Load()
	l := logger.Setup()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	out := os.Getenv("RENDER_OUT")
	if out == "" {
		out = "map.png"
	}
	selected := strings.ToUpper(strings.TrimSpace(os.Getenv("RENDER_SELECT")))

	srcs := make([]dataset.Source, 0, len(cfg.Datasets))
	for _, d := range cfg.Datasets {
		srcs = append(srcs, dataset.Source{Category: category.ParseCategory(d.Category), Path: d.Path})
	}
	ld := &catalog.Loader{Sources: srcs, GeometryPath: cfg.GeometryPath, Collator: search.NewCollator(cfg.Locale)}
	cat, err := ld.Load(context.Background())
	if err != nil {
		l.Error("catalog_error", "err", err)
		os.Exit(1)
	}

	view := mapview.View{Width: cfg.ViewWidth, Height: cfg.ViewHeight, MinZoom: cfg.MinZoom, MaxZoom: cfg.MaxZoom}
	cam := view.Clamp(camera.State{Center: cfg.DefaultCenter, Zoom: cfg.DefaultZoom})
	if c, ok := cat.Geometry.CentroidOf(selected); ok {
		cam = view.Clamp(camera.State{Center: c, Zoom: cfg.SelectZoom})
	}
	shapes := view.Render(cat.Geometry.Features(), cat.Categories, selected, cam)
	mapview.Annotate(shapes, cat.Tooltip)

	f, err := os.Create(out)
	if err != nil {
		l.Error("render_open_error", "path", out, "err", err)
		os.Exit(1)
	}
	if strings.EqualFold(filepath.Ext(out), ".svg") {
		err = mapview.WriteSVG(f, shapes, view)
	} else {
		err = mapview.WritePNG(f, shapes, view, mapview.DefaultLegend())
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		l.Error("render_error", "path", out, "err", err)
		os.Exit(1)
	}
	l.Info("render_ok", "path", out, "shapes", len(shapes), "selected", selected)
}
