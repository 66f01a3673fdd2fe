// 包 geometry：国家边界索引（要素集合 + 质心查找 + 点击命中）
// 约束：构建后只读，可被多个会话并发读取；质心在 Build 时一次算出并按 code3 缓存
package geometry

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/gjson"

	"passport-map/internal/countrycode"
)

// Feature：一个可渲染的国家区域；Code3 为空表示无法识别代码（仍渲染，但不入索引）
type Feature struct {
	Code3    string
	Name     string
	Geometry orb.MultiPolygon
	Bound    orb.Bound
}

// Index：要素与质心索引
type Index struct {
	features  []Feature
	byCode    map[string]int
	centroids map[string]orb.Point
	Dropped   int
}

// Load：读取 GeoJSON 或 TopoJSON 文件
func Load(path string) (*Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geometry: %w", err)
	}
	return Decode(b)
}

// Decode：按 type 字段区分 Topology 与 FeatureCollection
func Decode(b []byte) (*Index, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("geometry: invalid json")
	}
	var fc *geojson.FeatureCollection
	var err error
	switch gjson.GetBytes(b, "type").String() {
	case "Topology":
		fc, err = DecodeTopology(b)
	case "FeatureCollection":
		fc, err = geojson.UnmarshalFeatureCollection(b)
	default:
		return nil, fmt.Errorf("geometry: unsupported type %q", gjson.GetBytes(b, "type").String())
	}
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	return Build(fc), nil
}

// Build：规范化为 MultiPolygon 并计算质心
// 约束：非面要素丢弃（计入 Dropped）；重复代码以首个要素为准；非有限质心不入查找表
func Build(fc *geojson.FeatureCollection) *Index {
	idx := &Index{byCode: make(map[string]int), centroids: make(map[string]orb.Point)}
	if fc == nil {
		return idx
	}
	for _, f := range fc.Features {
		mp, ok := asMultiPolygon(f.Geometry)
		if !ok || len(mp) == 0 {
			idx.Dropped++
			continue
		}
		ft := Feature{Code3: codeOf(f), Name: nameOf(f), Geometry: mp, Bound: mp.Bound()}
		idx.features = append(idx.features, ft)
		if ft.Code3 == "" {
			continue
		}
		if _, dup := idx.byCode[ft.Code3]; dup {
			continue
		}
		idx.byCode[ft.Code3] = len(idx.features) - 1
		c, area := planar.CentroidArea(mp)
		if finite(c) && area != 0 {
			idx.centroids[ft.Code3] = c
		}
	}
	return idx
}

// Features：渲染顺序与输入一致
func (x *Index) Features() []Feature { return x.features }

func (x *Index) Len() int { return len(x.features) }

// CentroidOf：无质心（未知代码或退化几何）时返回 false
func (x *Index) CentroidOf(code3 string) (orb.Point, bool) {
	c, ok := x.centroids[code3]
	return c, ok
}

func (x *Index) Feature(code3 string) (Feature, bool) {
	i, ok := x.byCode[code3]
	if !ok {
		return Feature{}, false
	}
	return x.features[i], true
}

// Codes：已入索引的全部 code3
func (x *Index) Codes() []string {
	out := make([]string, 0, len(x.byCode))
	for c := range x.byCode {
		out = append(out, c)
	}
	return out
}

// HitTest：外包框预筛后做含洞的点面判定；重叠时取渲染顺序靠后的要素（即视觉上层）
func (x *Index) HitTest(lon, lat float64) (Feature, bool) {
	pt := orb.Point{lon, lat}
	for i := len(x.features) - 1; i >= 0; i-- {
		f := x.features[i]
		if !f.Bound.Contains(pt) {
			continue
		}
		if planar.MultiPolygonContains(f.Geometry, pt) {
			return f, true
		}
	}
	return Feature{}, false
}

func asMultiPolygon(g orb.Geometry) (orb.MultiPolygon, bool) {
	switch v := g.(type) {
	case orb.MultiPolygon:
		return v, true
	case orb.Polygon:
		return orb.MultiPolygon{v}, true
	}
	return nil, false
}

// codeOf：id → ISO_A3/iso_a3 → ADM0_A3（-99 占位时回退）→ ISO_A2 转换
func codeOf(f *geojson.Feature) string {
	if s, ok := f.ID.(string); ok && isAlpha3(s) {
		return strings.ToUpper(s)
	}
	for _, k := range []string{"ISO_A3", "iso_a3", "ADM0_A3", "adm0_a3", "id"} {
		if s := f.Properties.MustString(k, ""); isAlpha3(s) {
			return strings.ToUpper(s)
		}
	}
	for _, k := range []string{"ISO_A2", "iso_a2"} {
		if c, ok := countrycode.Alpha3(f.Properties.MustString(k, "")); ok {
			return c
		}
	}
	return ""
}

func nameOf(f *geojson.Feature) string {
	for _, k := range []string{"name", "NAME", "ADMIN", "name_en"} {
		if s := f.Properties.MustString(k, ""); s != "" {
			return s
		}
	}
	return ""
}

func isAlpha3(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) && !math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}
