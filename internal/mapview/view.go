// 包 mapview：按类别着色渲染国家要素，处理点击选择与手动平移/缩放
// 约束：不持有选择状态；点击只返回选择请求，由会话屏幕决定是否提交
package mapview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"passport-map/internal/camera"
	"passport-map/internal/category"
	"passport-map/internal/geometry"
)

// 赤道周长（米），zoom=1 时整幅世界宽度恰好等于视口宽度
const earthCircumference = 40075016.68

// Mercator 可表示的纬度上限
const maxLat = 85.05112878

const (
	SelectedFill = "#e74c3c"
	StrokeColor  = "#000000"
)

// Palette：类别 → 填充色
var Palette = map[category.Category]string{
	category.Diplomat: "#3b82f6",
	category.Normal:   "#22c55e",
	category.Special:  "#facc15",
	category.Other:    "#9ca3af",
}

// Fill：选中优先，其次类别色
func Fill(c category.Category, selected bool) string {
	if selected {
		return SelectedFill
	}
	if f, ok := Palette[c]; ok {
		return f
	}
	return Palette[category.Other]
}

// View：视口尺寸、缩放范围与中心可移动范围（经纬度）
type View struct {
	Width   int
	Height  int
	MinZoom float64
	MaxZoom float64
	Extent  orb.Bound
}

// WorldExtent：默认中心范围
func WorldExtent() orb.Bound {
	return orb.Bound{Min: orb.Point{-180, -maxLat}, Max: orb.Point{180, maxLat}}
}

// Shape：投影到像素空间的一个要素
type Shape struct {
	Code3       string
	Name        string
	Title       string
	Category    category.Category
	Fill        string
	Interactive bool
	Selected    bool
	Rings       []orb.Ring
}

func (v View) scale(zoom float64) float64 {
	return zoom * float64(v.Width) / earthCircumference
}

func toMercator(p orb.Point) orb.Point {
	lat := math.Max(-maxLat, math.Min(maxLat, p[1]))
	return project.WGS84.ToMercator(orb.Point{p[0], lat})
}

// Project：经纬度 → 像素
func (v View) Project(cam camera.State, p orb.Point) orb.Point {
	s := v.scale(cam.Zoom)
	c := toMercator(cam.Center)
	m := toMercator(p)
	return orb.Point{
		float64(v.Width)/2 + (m[0]-c[0])*s,
		float64(v.Height)/2 - (m[1]-c[1])*s,
	}
}

// Unproject：像素 → 经纬度
func (v View) Unproject(cam camera.State, x, y float64) orb.Point {
	s := v.scale(cam.Zoom)
	c := toMercator(cam.Center)
	m := orb.Point{
		c[0] + (x-float64(v.Width)/2)/s,
		c[1] - (y-float64(v.Height)/2)/s,
	}
	return project.Mercator.ToWGS84(m)
}

// Render：投影全部要素并套用类别/选中样式；完全落在视口外的要素被裁掉
func (v View) Render(features []geometry.Feature, cats category.Map, selected string, cam camera.State) []Shape {
	viewport := orb.Bound{Max: orb.Point{float64(v.Width), float64(v.Height)}}
	out := make([]Shape, 0, len(features))
	for _, f := range features {
		cat := category.Other
		if f.Code3 != "" {
			cat = cats.Get(f.Code3)
		}
		sel := selected != "" && f.Code3 == selected
		sh := Shape{
			Code3:       f.Code3,
			Name:        f.Name,
			Category:    cat,
			Fill:        Fill(cat, sel),
			Interactive: f.Code3 != "" && cat != category.Other,
			Selected:    sel,
		}
		b := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
		for _, poly := range f.Geometry {
			for _, r := range poly {
				pr := make(orb.Ring, len(r))
				for i, p := range r {
					pr[i] = v.Project(cam, p)
					b = b.Extend(pr[i])
				}
				sh.Rings = append(sh.Rings, pr)
			}
		}
		if len(sh.Rings) == 0 || !b.Intersects(viewport) {
			continue
		}
		out = append(out, sh)
	}
	return out
}

// Annotate：为图形填入悬停文案
func Annotate(shapes []Shape, title func(code3 string) string) {
	for i := range shapes {
		if shapes[i].Code3 != "" {
			shapes[i].Title = title(shapes[i].Code3)
		}
	}
}

// Click：像素坐标命中测试；只有可交互要素产生选择请求
func (v View) Click(x, y float64, cam camera.State, idx *geometry.Index, cats category.Map) (string, bool) {
	p := v.Unproject(cam, x, y)
	f, ok := idx.HitTest(p[0], p[1])
	if !ok || f.Code3 == "" || cats.Get(f.Code3) == category.Other {
		return "", false
	}
	return f.Code3, true
}

// Clamp：缩放限制在 [MinZoom, MaxZoom]，中心限制在 Extent 内
func (v View) Clamp(s camera.State) camera.State {
	if v.MaxZoom >= v.MinZoom && v.MaxZoom > 0 {
		s.Zoom = math.Max(v.MinZoom, math.Min(v.MaxZoom, s.Zoom))
	}
	ext := v.Extent
	if ext.IsZero() || ext.IsEmpty() {
		ext = WorldExtent()
	}
	s.Center = orb.Point{
		math.Max(ext.Min[0], math.Min(ext.Max[0], s.Center[0])),
		math.Max(ext.Min[1], math.Min(ext.Max[1], s.Center[1])),
	}
	return s
}

// Pan：拖拽 (dx, dy) 像素后地图跟随手势移动
func (v View) Pan(cam camera.State, dx, dy float64) camera.State {
	c := v.Unproject(cam, float64(v.Width)/2-dx, float64(v.Height)/2-dy)
	return v.Clamp(camera.State{Center: c, Zoom: cam.Zoom})
}

// ZoomAt：以 (x, y) 处的地理点为锚缩放，锚点在屏幕上保持不动（受 Clamp 约束时除外）
func (v View) ZoomAt(cam camera.State, factor, x, y float64) camera.State {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return v.Clamp(cam)
	}
	anchor := toMercator(v.Unproject(cam, x, y))
	next := v.Clamp(camera.State{Center: cam.Center, Zoom: cam.Zoom * factor})
	s := v.scale(next.Zoom)
	m := orb.Point{
		anchor[0] - (x-float64(v.Width)/2)/s,
		anchor[1] + (y-float64(v.Height)/2)/s,
	}
	next.Center = project.Mercator.ToWGS84(m)
	return v.Clamp(next)
}
