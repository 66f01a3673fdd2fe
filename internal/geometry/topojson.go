package geometry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// 文档注释：TopoJSON → GeoJSON 要素集合
// 背景：world-atlas 等常见国界数据以 TopoJSON 分发，弧段共享、量化后差分编码
// 约束：只解 Polygon/MultiPolygon（及其 GeometryCollection 容器）；优先取名为 countries 的对象
type topology struct {
	Type      string                  `json:"type"`
	Transform *transform              `json:"transform"`
	Arcs      [][][]float64           `json:"arcs"`
	Objects   map[string]topoGeometry `json:"objects"`
}

type transform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoGeometry struct {
	Type       string          `json:"type"`
	ID         any             `json:"id"`
	Properties map[string]any  `json:"properties"`
	Arcs       json.RawMessage `json:"arcs"`
	Geometries []topoGeometry  `json:"geometries"`
}

// DecodeTopology：解码弧段并拼环，输出 GeoJSON 要素集合
func DecodeTopology(b []byte) (*geojson.FeatureCollection, error) {
	var t topology
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	if t.Type != "Topology" {
		return nil, fmt.Errorf("not a topology: %q", t.Type)
	}
	obj, ok := pickObject(t.Objects)
	if !ok {
		return nil, fmt.Errorf("topology has no objects")
	}
	arcs := decodeArcs(t.Arcs, t.Transform)
	fc := geojson.NewFeatureCollection()
	var walk func(g topoGeometry) error
	walk = func(g topoGeometry) error {
		switch g.Type {
		case "GeometryCollection":
			for _, c := range g.Geometries {
				if err := walk(c); err != nil {
					return err
				}
			}
			return nil
		case "Polygon":
			var refs [][]int
			if err := json.Unmarshal(g.Arcs, &refs); err != nil {
				return fmt.Errorf("polygon arcs: %w", err)
			}
			p, err := polygon(arcs, refs)
			if err != nil {
				return err
			}
			fc.Append(feature(g, p))
		case "MultiPolygon":
			var refs [][][]int
			if err := json.Unmarshal(g.Arcs, &refs); err != nil {
				return fmt.Errorf("multipolygon arcs: %w", err)
			}
			mp := make(orb.MultiPolygon, 0, len(refs))
			for _, pr := range refs {
				p, err := polygon(arcs, pr)
				if err != nil {
					return err
				}
				mp = append(mp, p)
			}
			fc.Append(feature(g, mp))
		}
		return nil
	}
	if err := walk(obj); err != nil {
		return nil, err
	}
	return fc, nil
}

func pickObject(objs map[string]topoGeometry) (topoGeometry, bool) {
	if o, ok := objs["countries"]; ok {
		return o, true
	}
	names := make([]string, 0, len(objs))
	for k := range objs {
		names = append(names, k)
	}
	if len(names) == 0 {
		return topoGeometry{}, false
	}
	sort.Strings(names)
	return objs[names[0]], true
}

func feature(g topoGeometry, geom orb.Geometry) *geojson.Feature {
	f := geojson.NewFeature(geom)
	f.ID = g.ID
	for k, v := range g.Properties {
		f.Properties[k] = v
	}
	return f
}

// decodeArcs：有 transform 时按差分累加后反量化
func decodeArcs(raw [][][]float64, tf *transform) [][]orb.Point {
	out := make([][]orb.Point, len(raw))
	for i, arc := range raw {
		pts := make([]orb.Point, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if tf == nil {
				pts = append(pts, orb.Point{p[0], p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			pts = append(pts, orb.Point{x*tf.Scale[0] + tf.Translate[0], y*tf.Scale[1] + tf.Translate[1]})
		}
		out[i] = pts
	}
	return out
}

func polygon(arcs [][]orb.Point, refs [][]int) (orb.Polygon, error) {
	p := make(orb.Polygon, 0, len(refs))
	for _, ringRefs := range refs {
		r, err := ring(arcs, ringRefs)
		if err != nil {
			return nil, err
		}
		p = append(p, r)
	}
	return p, nil
}

// ring：负索引 ~i 表示反向使用第 i 条弧；相邻弧首尾点重合，拼接时去掉后一条的首点
func ring(arcs [][]orb.Point, refs []int) (orb.Ring, error) {
	var r orb.Ring
	for _, ref := range refs {
		i, rev := ref, false
		if ref < 0 {
			i, rev = ^ref, true
		}
		if i >= len(arcs) {
			return nil, fmt.Errorf("arc %d out of range", i)
		}
		a := arcs[i]
		for k := range a {
			pt := a[k]
			if rev {
				pt = a[len(a)-1-k]
			}
			if k == 0 && len(r) > 0 {
				continue
			}
			r = append(r, pt)
		}
	}
	return r, nil
}
