// 包 category：多数据集按固定优先级合并为 code3 → 类别映射
// 约束：纯函数，无 I/O；缺失代码映射的行静默跳过
package category

import "strings"

// Category：证件类别；零值为 Other
type Category int

const (
	Other Category = iota
	Special
	Normal
	Diplomat
)

// Rank：优先级（diplomat=3 > normal=2 > special=1 > other=0）
func Rank(c Category) int {
	switch c {
	case Diplomat:
		return 3
	case Normal:
		return 2
	case Special:
		return 1
	}
	return 0
}

func (c Category) String() string {
	switch c {
	case Diplomat:
		return "diplomat"
	case Normal:
		return "normal"
	case Special:
		return "special"
	}
	return "other"
}

// Label：面板徽章文案
func (c Category) Label() string {
	switch c {
	case Diplomat:
		return "Дипломат/Албан"
	case Normal:
		return "Энгийн"
	case Special:
		return "Тусгай"
	}
	return ""
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}

// ParseCategory：未知标签一律视为 Other
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "diplomat", "official":
		return Diplomat
	case "normal", "ordinary":
		return Normal
	case "special", "service":
		return Special
	}
	return Other
}

// Row：数据集中的原始行
type Row struct {
	CountryCode   string
	NameEn        string
	NameLocal     string
	Duration      string
	EffectiveDate string
	Notes         string
	PassportType  string
}

// Dataset：带类别标签的一组行
type Dataset struct {
	Category Category
	Rows     []Row
}

// Map：code3 → 类别；不存在的代码即 Other
type Map map[string]Category

// Get：未收录时返回 Other
func (m Map) Get(code3 string) Category {
	return m[code3]
}

// Translator：两位码 → 三位码
type Translator func(code2 string) (string, bool)

// Stats：合并统计
type Stats struct {
	Rows     int
	Skipped  int
	Replaced int
}

// Resolve：按数据集顺序合并；新类别严格高于已有类别时才覆盖，同级先写者保留
func Resolve(datasets []Dataset, translate Translator) (Map, Stats) {
	m := make(Map)
	var st Stats
	for _, ds := range datasets {
		for _, r := range ds.Rows {
			st.Rows++
			code3, ok := translate(r.CountryCode)
			if !ok {
				st.Skipped++
				continue
			}
			cur, seen := m[code3]
			if !seen {
				m[code3] = ds.Category
				continue
			}
			if Rank(ds.Category) > Rank(cur) {
				m[code3] = ds.Category
				st.Replaced++
			}
		}
	}
	return m, st
}
