// 包 dataset：读取分类数据集（JSON 文件或 Postgres），并在文件变化时触发重建
package dataset

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"passport-map/internal/category"
	"passport-map/internal/logger"
)

// Source：一个带类别的数据文件
type Source struct {
	Category category.Category
	Path     string
}

var ErrNoDatasets = errors.New("no datasets loaded")

// ParseRows：JSON 数组逐字段读取；数字或字符串形式的停留天数都接受
func ParseRows(b []byte) ([]category.Row, error) {
	if !gjson.ValidBytes(b) {
		return nil, errors.New("invalid json")
	}
	doc := gjson.ParseBytes(b)
	if !doc.IsArray() {
		return nil, errors.New("dataset must be a json array")
	}
	var rows []category.Row
	doc.ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		rows = append(rows, category.Row{
			CountryCode:   strings.TrimSpace(v.Get("country_code").String()),
			NameEn:        v.Get("country_name_en").String(),
			NameLocal:     v.Get("country_name_mn").String(),
			Duration:      v.Get("visa_free_duration").String(),
			EffectiveDate: v.Get("effective_date").String(),
			Notes:         v.Get("notes").String(),
			PassportType:  v.Get("passport_type").String(),
		})
		return true
	})
	return rows, nil
}

// LoadFile：读取单个数据集文件
func LoadFile(src Source) (category.Dataset, error) {
	b, err := os.ReadFile(src.Path)
	if err != nil {
		return category.Dataset{}, err
	}
	rows, err := ParseRows(b)
	if err != nil {
		return category.Dataset{}, fmt.Errorf("%s: %w", src.Path, err)
	}
	return category.Dataset{Category: src.Category, Rows: rows}, nil
}

// LoadFiles：按配置顺序读取；单个文件缺失或损坏只记日志跳过，全部失败才返回错误
func LoadFiles(srcs []Source) ([]category.Dataset, error) {
	l := logger.L()
	var out []category.Dataset
	for _, s := range srcs {
		ds, err := LoadFile(s)
		if err != nil {
			l.Warn("dataset_load_error", "path", s.Path, "category", s.Category.String(), "err", err)
			continue
		}
		l.Debug("dataset_load_ok", "path", s.Path, "category", s.Category.String(), "rows", len(ds.Rows))
		out = append(out, ds)
	}
	if len(out) == 0 {
		return nil, ErrNoDatasets
	}
	return out, nil
}
