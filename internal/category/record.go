package category

import (
	"fmt"
	"strings"

	"passport-map/internal/countrycode"
)

// Attributes：行上附带的免签信息
type Attributes struct {
	Duration      string `json:"duration,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
	Notes         string `json:"notes,omitempty"`
	PassportType  string `json:"passport_type,omitempty"`
}

// Record：合并后的国家记录，构造后不可变
type Record struct {
	Code2      string     `json:"code2"`
	Code3      string     `json:"code3"`
	NameEn     string     `json:"name_en"`
	NameLocal  string     `json:"name_local,omitempty"`
	Category   Category   `json:"category"`
	Attributes Attributes `json:"attributes"`
}

// BuildRecords：每个代码取其最终类别数据集中的首行；其他数据集只补缺失的本地名
func BuildRecords(datasets []Dataset, m Map, translate Translator) map[string]Record {
	out := make(map[string]Record, len(m))
	for _, ds := range datasets {
		for _, r := range ds.Rows {
			code3, ok := translate(r.CountryCode)
			if !ok || m[code3] != ds.Category {
				continue
			}
			if _, done := out[code3]; done {
				continue
			}
			out[code3] = Record{
				Code2:     strings.ToUpper(strings.TrimSpace(r.CountryCode)),
				Code3:     code3,
				NameEn:    r.NameEn,
				NameLocal: r.NameLocal,
				Category:  ds.Category,
				Attributes: Attributes{
					Duration:      r.Duration,
					EffectiveDate: r.EffectiveDate,
					Notes:         r.Notes,
					PassportType:  r.PassportType,
				},
			}
		}
	}
	for _, ds := range datasets {
		for _, r := range ds.Rows {
			if r.NameLocal == "" {
				continue
			}
			code3, ok := translate(r.CountryCode)
			if !ok {
				continue
			}
			if rec, ok := out[code3]; ok && rec.NameLocal == "" {
				rec.NameLocal = r.NameLocal
				out[code3] = rec
			}
		}
	}
	return out
}

// DisplayName：本地名优先
func (r Record) DisplayName() string {
	if r.NameLocal != "" {
		return r.NameLocal
	}
	return r.NameEn
}

// NoInfo：未收录国家的悬停文案
const NoInfo = "Мэдээлэл байхгүй"

// Tooltip：地图悬停文案，形如 "🇯🇵 Япон: 30 хоног хүртэл"，其后附备注与生效日期
func (r Record) Tooltip() string {
	var b strings.Builder
	if f := countrycode.FlagEmoji(r.Code2); f != "" {
		b.WriteString(f)
		b.WriteByte(' ')
	}
	b.WriteString(r.DisplayName())
	d := strings.TrimSpace(r.Attributes.Duration)
	if d == "" {
		d = "N/A"
	}
	fmt.Fprintf(&b, ": %s хоног хүртэл", d)
	if n := strings.TrimSpace(r.Attributes.Notes); n != "" {
		fmt.Fprintf(&b, "\nТэмдэглэл: %s", n)
	}
	if e := strings.TrimSpace(r.Attributes.EffectiveDate); e != "" {
		fmt.Fprintf(&b, "\nХүчинтэй огноо: %s", e)
	}
	return b.String()
}

// FlagURL：面板用旗帜图片
func (r Record) FlagURL() string {
	if r.Code2 == "" {
		return ""
	}
	return "https://flagcdn.com/" + strings.ToLower(r.Code2) + ".svg"
}
