package mapview

import (
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"passport-map/internal/category"
)

// LegendItem：图例一行
type LegendItem struct {
	Fill  string
	Label string
}

// DefaultLegend：三类可选类别加“其他”
func DefaultLegend() []LegendItem {
	return []LegendItem{
		{Fill: Palette[category.Diplomat], Label: category.Diplomat.Label()},
		{Fill: Palette[category.Normal], Label: category.Normal.Label()},
		{Fill: Palette[category.Special], Label: category.Special.Label()},
	}
}

var (
	fontOnce sync.Once
	fontTT   *truetype.Font
	fontErr  error
)

func legendFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		fontTT, fontErr = freetype.ParseFont(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	return truetype.NewFace(fontTT, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

// WritePNG：栅格化渲染结果；legend 为空时不画图例
func WritePNG(w io.Writer, shapes []Shape, v View, legend []LegendItem) error {
	dc := gg.NewContext(v.Width, v.Height)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.SetFillRuleEvenOdd()
	dc.SetLineWidth(0.5)
	for _, s := range shapes {
		dc.NewSubPath()
		for _, r := range s.Rings {
			for i, p := range r {
				if i == 0 {
					dc.MoveTo(p[0], p[1])
				} else {
					dc.LineTo(p[0], p[1])
				}
			}
			dc.ClosePath()
		}
		dc.SetHexColor(s.Fill)
		dc.FillPreserve()
		dc.SetRGBA(0, 0, 0, 0.3)
		dc.Stroke()
	}
	if len(legend) > 0 {
		if err := drawLegend(dc, v, legend); err != nil {
			return err
		}
	}
	return dc.EncodePNG(w)
}

func drawLegend(dc *gg.Context, v View, legend []LegendItem) error {
	face, err := legendFace(12)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	const pad, row, swatch = 8.0, 18.0, 12.0
	h := pad*2 + row*float64(len(legend))
	y0 := float64(v.Height) - h - pad
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(pad, y0, 150, h)
	dc.Fill()
	for i, it := range legend {
		y := y0 + pad + row*float64(i)
		dc.SetHexColor(it.Fill)
		dc.DrawRectangle(pad*2, y+2, swatch, swatch)
		dc.Fill()
		dc.SetHexColor("#111827")
		dc.DrawStringAnchored(it.Label, pad*2+swatch+6, y+2+swatch/2, 0, 0.5)
	}
	return nil
}
