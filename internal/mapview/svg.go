package mapview

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// WriteSVG：每个要素一条 path；可交互要素带 data-code 与 interactive 类，悬停文案放进 <title>
func WriteSVG(w io.Writer, shapes []Shape, v View) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		v.Width, v.Height, v.Width, v.Height)
	for _, s := range shapes {
		bw.WriteString(`<path d="`)
		bw.WriteString(pathData(s.Rings))
		fmt.Fprintf(bw, `" fill="%s" fill-rule="evenodd" stroke="%s" stroke-opacity="0.3" stroke-width="0.5"`, s.Fill, StrokeColor)
		if s.Code3 != "" {
			fmt.Fprintf(bw, ` data-code="%s"`, s.Code3)
		}
		switch {
		case s.Selected && s.Interactive:
			bw.WriteString(` class="interactive selected"`)
		case s.Selected:
			bw.WriteString(` class="selected"`)
		case s.Interactive:
			bw.WriteString(` class="interactive"`)
		}
		if s.Title == "" {
			bw.WriteString("/>\n")
			continue
		}
		bw.WriteString("><title>")
		if err := xml.EscapeText(bw, []byte(s.Title)); err != nil {
			return err
		}
		bw.WriteString("</title></path>\n")
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func pathData(rings []orb.Ring) string {
	var b strings.Builder
	for _, r := range rings {
		for i, p := range r {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			b.WriteString(num(p[0]))
			b.WriteByte(' ')
			b.WriteString(num(p[1]))
		}
		if len(r) > 0 {
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
