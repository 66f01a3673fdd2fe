// 包 catalog：一次构建得到的不可变目录（类别映射、记录、边界索引、搜索索引），通过原子切换热更新
package catalog

import (
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/text/collate"

	"passport-map/internal/category"
	"passport-map/internal/countrycode"
	"passport-map/internal/geometry"
	"passport-map/internal/logger"
	"passport-map/internal/metrics"
	"passport-map/internal/search"
)

// Catalog：构建后只读，可被所有会话共享
type Catalog struct {
	Categories category.Map
	Records    map[string]category.Record
	Geometry   *geometry.Index
	Search     *search.Index
	Stats      category.Stats
	BuiltAt    time.Time
}

// Build：合并数据集并补齐只有边界、没有数据的国家（记为 other，用于列表与悬停提示）
func Build(datasets []category.Dataset, geo *geometry.Index, col *collate.Collator) *Catalog {
	m, st := category.Resolve(datasets, countrycode.Alpha3)
	recs := category.BuildRecords(datasets, m, countrycode.Alpha3)
	if geo == nil {
		geo = geometry.Build(nil)
	}
	for _, code3 := range geo.Codes() {
		if _, ok := recs[code3]; ok {
			continue
		}
		f, _ := geo.Feature(code3)
		code2, _ := countrycode.Alpha2(code3)
		recs[code3] = category.Record{Code2: code2, Code3: code3, NameEn: f.Name, Category: category.Other}
	}
	c := &Catalog{
		Categories: m,
		Records:    recs,
		Geometry:   geo,
		Search:     search.NewIndex(search.BuildEntries(m, recs, col)),
		Stats:      st,
		BuiltAt:    time.Now(),
	}
	counts := c.Counts()
	for _, cat := range []category.Category{category.Diplomat, category.Normal, category.Special, category.Other} {
		metrics.CatalogCountries.WithLabelValues(cat.String()).Set(float64(counts[cat]))
	}
	logger.L().Info("catalog_build_ok",
		"rows", st.Rows, "skipped", st.Skipped, "countries", len(m),
		"features", geo.Len(), "dropped_features", geo.Dropped)
	return c
}

// Counts：各类别国家数（含只有边界的 other）
func (c *Catalog) Counts() map[category.Category]int {
	out := map[category.Category]int{}
	for _, r := range c.Records {
		out[c.Categories.Get(r.Code3)]++
	}
	return out
}

func (c *Catalog) Record(code3 string) (category.Record, bool) {
	r, ok := c.Records[code3]
	return r, ok
}

// Tooltip：有数据的国家显示完整提示，否则显示“无信息”
func (c *Catalog) Tooltip(code3 string) string {
	r, ok := c.Records[code3]
	if !ok || r.Category == category.Other {
		return category.NoInfo
	}
	return r.Tooltip()
}

// Listing：全部记录，顺序与搜索索引一致
func (c *Catalog) Listing() []category.Record {
	entries := c.Search.Entries()
	out := make([]category.Record, 0, len(entries))
	for _, e := range entries {
		if r, ok := c.Records[e.Code3]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Codes：已分类国家代码（排序），供调试与导出
func (c *Catalog) Codes() []string {
	out := make([]string, 0, len(c.Categories))
	for k := range c.Categories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Holder：原子持有当前目录；读路径无锁
type Holder struct{ v atomic.Value }

func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.Store(c)
	return h
}

// Load：未设置时返回 nil
func (h *Holder) Load() *Catalog {
	x := h.v.Load()
	if x == nil {
		return nil
	}
	return x.(*Catalog)
}

// Store：c 不能为 nil
func (h *Holder) Store(c *Catalog) {
	if c == nil {
		return
	}
	h.v.Store(c)
}
