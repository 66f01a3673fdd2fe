// 包 search：可选国家的排序列表、子串过滤与键盘导航
// 约束：类别为 other 的条目永不出现在结果中；条目只在目录重建时生成
package search

import (
	"log/slog"
	"sort"
	"strings"

	locale "github.com/Xuanwo/go-locale"
	"github.com/agext/levenshtein"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"passport-map/internal/category"
	"passport-map/internal/logger"
)

// MaxResults：过滤结果上限
const MaxResults = 12

// Entry：一个可搜索的国家
type Entry struct {
	Code3     string            `json:"code3"`
	Code2     string            `json:"code2"`
	NameEn    string            `json:"name_en"`
	NameLocal string            `json:"name_local,omitempty"`
	Category  category.Category `json:"category"`
}

// DisplayName：本地名优先
func (e Entry) DisplayName() string {
	if e.NameLocal != "" {
		return e.NameLocal
	}
	return e.NameEn
}

// NewCollator：locale 为空时探测系统语言，探测失败回退到无特定语言的排序
func NewCollator(loc string) *collate.Collator {
	tag := language.Und
	if loc != "" {
		if t, err := language.Parse(loc); err == nil {
			tag = t
		} else {
			logger.L().Warn("search_locale_invalid", "locale", loc, "err", err)
		}
	} else if t, err := locale.Detect(); err == nil {
		tag = t
	} else {
		logger.L().Debug("search_locale_detect_failed", "err", err)
	}
	return collate.New(tag, collate.IgnoreCase)
}

// BuildEntries：按显示名做语言敏感排序，同名按 code3 排序
func BuildEntries(m category.Map, records map[string]category.Record, col *collate.Collator) []Entry {
	out := make([]Entry, 0, len(records))
	for code3, r := range records {
		out = append(out, Entry{
			Code3:     code3,
			Code2:     r.Code2,
			NameEn:    r.NameEn,
			NameLocal: r.NameLocal,
			Category:  m.Get(code3),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DisplayName(), out[j].DisplayName()
		var c int
		if col != nil {
			c = col.CompareString(a, b)
		} else {
			c = strings.Compare(a, b)
		}
		if c != 0 {
			return c < 0
		}
		return out[i].Code3 < out[j].Code3
	})
	return out
}

// Index：只读，可并发使用
type Index struct {
	all      []Entry
	eligible []Entry
	byCode   map[string]int
}

func NewIndex(entries []Entry) *Index {
	x := &Index{all: entries, byCode: make(map[string]int, len(entries))}
	for i, e := range entries {
		x.byCode[e.Code3] = i
		if e.Category != category.Other {
			x.eligible = append(x.eligible, e)
		}
	}
	return x
}

// Entries：全部条目（含 other），排序与构建时一致
func (x *Index) Entries() []Entry { return x.all }

// Lookup：按 code3 取条目
func (x *Index) Lookup(code3 string) (Entry, bool) {
	i, ok := x.byCode[code3]
	if !ok {
		return Entry{}, false
	}
	return x.all[i], true
}

// Filter：去首尾空白后不区分大小写地匹配英文名、本地名、两位码、三位码；最多 MaxResults 条
func (x *Index) Filter(q string) []Entry {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]Entry, 0, MaxResults)
	for _, e := range x.eligible {
		if len(out) == MaxResults {
			break
		}
		if q == "" || matches(e, q) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e Entry, q string) bool {
	return strings.Contains(strings.ToLower(e.NameEn), q) ||
		strings.Contains(strings.ToLower(e.NameLocal), q) ||
		strings.Contains(strings.ToLower(e.Code2), q) ||
		strings.Contains(strings.ToLower(e.Code3), q)
}

// Suggest：过滤无结果时按编辑距离相似度给出候选（相似度 > 0.5），不影响 Filter
func (x *Index) Suggest(q string, n int) []Entry {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" || n <= 0 {
		return nil
	}
	type scored struct {
		e     Entry
		score float64
	}
	var cands []scored
	for _, e := range x.eligible {
		s := levenshtein.Match(q, strings.ToLower(e.NameEn), nil)
		if e.NameLocal != "" {
			if l := levenshtein.Match(q, strings.ToLower(e.NameLocal), nil); l > s {
				s = l
			}
		}
		if s > 0.5 {
			cands = append(cands, scored{e, s})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]Entry, len(cands))
	for i, c := range cands {
		out[i] = c.e
	}
	return out
}

// LogSummary：构建完成后的统计日志
func (x *Index) LogSummary(l *slog.Logger) {
	l.Info("search_index_built", "entries", len(x.all), "searchable", len(x.eligible))
}
