package charts

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"orderviz/internal/features/aggregate"

	"github.com/fogleman/gg"
)

// PNGRenderer draws charts with gg.
type PNGRenderer struct {
	tf typeface
}

func NewPNGRenderer(fontPath string) *PNGRenderer {
	return &PNGRenderer{tf: loadTypeface(fontPath)}
}

func (r *PNGRenderer) Ext() string { return "png" }

// FontPath is the font actually in use.
func (r *PNGRenderer) FontPath() string { return r.tf.path }

type rect struct {
	x0, y0, x1, y1 float64
}

func (a rect) w() float64 { return a.x1 - a.x0 }
func (a rect) h() float64 { return a.y1 - a.y0 }

type legendEntry struct {
	label string
	color color.RGBA
}

func (r *PNGRenderer) Render(w io.Writer, spec ChartSpec, s aggregate.Series) error {
	if err := validate(spec, s); err != nil {
		return err
	}
	if spec.FontSize <= 0 {
		spec.FontSize = DefaultStyle().FontSize
	}

	dc := gg.NewContext(spec.Width, spec.Height)
	dc.SetColor(spec.Background)
	dc.Clear()

	pad := spec.FontSize
	area := rect{x0: pad, y0: pad, x1: float64(spec.Width) - pad, y1: float64(spec.Height) - pad}
	area.y0 = r.drawTitle(dc, spec, area)

	var entries []legendEntry
	if spec.Kind == KindLine {
		for i, d := range s.Datasets {
			entries = append(entries, legendEntry{label: d.Name, color: spec.color(i)})
		}
	} else {
		for i, l := range s.Labels {
			label := fmt.Sprintf("%s (%s)", l, spec.formatValue(s.Datasets[0].Values[i]))
			entries = append(entries, legendEntry{label: label, color: spec.color(i)})
		}
	}

	switch spec.LegendPosition {
	case "none":
	case "top":
		area.y0 = r.drawLegend(dc, spec, entries, area, area.y0)
	default:
		height := r.legendHeight(dc, spec, entries, area)
		r.drawLegend(dc, spec, entries, area, area.y1-height)
		area.y1 -= height
	}

	var err error
	switch spec.Kind {
	case KindLine:
		err = r.drawLine(dc, spec, s, area)
	case KindPie:
		err = r.drawPie(dc, spec, s, area, 0)
	case KindDoughnut:
		err = r.drawPie(dc, spec, s, area, 0.5)
	}
	if err != nil {
		return err
	}

	return dc.EncodePNG(w)
}

// drawTitle returns the y where the content below the title starts.
func (r *PNGRenderer) drawTitle(dc *gg.Context, spec ChartSpec, area rect) float64 {
	if spec.Title == "" {
		return area.y0
	}
	size := spec.FontSize * 1.4
	dc.SetFontFace(r.tf.face(size))
	dc.SetColor(spec.Foreground)
	dc.DrawStringAnchored(spec.Title, (area.x0+area.x1)/2, area.y0+size/2, 0.5, 0.5)
	return area.y0 + size*1.8
}

func (r *PNGRenderer) legendRows(dc *gg.Context, spec ChartSpec, entries []legendEntry, area rect) (rows [][]int, widths []float64) {
	size := spec.FontSize * 0.9
	dc.SetFontFace(r.tf.face(size))

	var row []int
	var width float64
	for i, e := range entries {
		tw, _ := dc.MeasureString(e.label)
		item := size + 6 + tw
		if len(row) > 0 && width+18+item > area.w() {
			rows = append(rows, row)
			widths = append(widths, width)
			row, width = nil, 0
		}
		if len(row) > 0 {
			width += 18
		}
		row = append(row, i)
		width += item
	}
	if len(row) > 0 {
		rows = append(rows, row)
		widths = append(widths, width)
	}
	return rows, widths
}

func (r *PNGRenderer) legendHeight(dc *gg.Context, spec ChartSpec, entries []legendEntry, area rect) float64 {
	rows, _ := r.legendRows(dc, spec, entries, area)
	return float64(len(rows))*spec.FontSize*1.6 + spec.FontSize*0.5
}

// drawLegend lays entries out in centred rows from y and returns the
// y just below them.
func (r *PNGRenderer) drawLegend(dc *gg.Context, spec ChartSpec, entries []legendEntry, area rect, y float64) float64 {
	rows, widths := r.legendRows(dc, spec, entries, area)
	size := spec.FontSize * 0.9
	rowHeight := spec.FontSize * 1.6
	y += spec.FontSize * 0.5

	for ri, row := range rows {
		x := area.x0 + (area.w()-widths[ri])/2
		cy := y + rowHeight/2
		for _, i := range row {
			e := entries[i]
			dc.SetColor(spec.faded(e.color))
			dc.DrawRectangle(x, cy-size/2, size, size)
			dc.FillPreserve()
			dc.SetColor(e.color)
			dc.SetLineWidth(1)
			dc.Stroke()

			dc.SetColor(spec.Foreground)
			dc.DrawStringAnchored(e.label, x+size+6, cy, 0, 0.5)
			tw, _ := dc.MeasureString(e.label)
			x += size + 6 + tw + 18
		}
		y += rowHeight
	}
	return y
}

func (r *PNGRenderer) drawLine(dc *gg.Context, spec ChartSpec, s aggregate.Series, area rect) error {
	fs := spec.FontSize
	tickSize := fs * 0.8

	lo, hi := 0.0, 0.0
	for _, d := range s.Datasets {
		for _, v := range d.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	lo, hi, step := niceScale(lo, hi, 5)

	dc.SetFontFace(r.tf.face(tickSize))
	var yTicks []float64
	var yLabelWidth float64
	for v := lo; v <= hi+step/2; v += step {
		yTicks = append(yTicks, v)
		tw, _ := dc.MeasureString(spec.formatValue(v))
		yLabelWidth = math.Max(yLabelWidth, tw)
	}
	var xLabelWidth float64
	for _, l := range s.Labels {
		tw, _ := dc.MeasureString(l)
		xLabelWidth = math.Max(xLabelWidth, tw)
	}

	yTitleWidth, xTitleHeight := 0.0, 0.0
	if spec.YAxisTitle != "" {
		yTitleWidth = fs * 1.6
	}
	if spec.XAxisTitle != "" {
		xTitleHeight = fs * 1.6
	}

	plot := rect{
		x0: area.x0 + yTitleWidth + yLabelWidth + 10,
		y0: area.y0,
		x1: area.x1 - xLabelWidth*0.7071/2,
		y1: area.y1 - xLabelWidth*0.7071 - tickSize - xTitleHeight,
	}
	if plot.w() < 20 || plot.h() < 20 {
		return fmt.Errorf("chart %q: %dx%d is too small for its labels", spec.Title, spec.Width, spec.Height)
	}

	yOf := func(v float64) float64 { return plot.y1 - (v-lo)/(hi-lo)*plot.h() }
	n := len(s.Labels)
	xOf := func(i int) float64 {
		if n == 1 {
			return (plot.x0 + plot.x1) / 2
		}
		return plot.x0 + float64(i)*plot.w()/float64(n-1)
	}

	// Grid and y ticks.
	dc.SetLineWidth(1)
	for _, v := range yTicks {
		y := yOf(v)
		dc.SetColor(spec.Grid)
		dc.DrawLine(plot.x0, y, plot.x1, y)
		dc.Stroke()
		dc.SetColor(spec.Foreground)
		dc.DrawStringAnchored(spec.formatValue(v), plot.x0-8, y, 1, 0.5)
	}

	// x ticks, thinned so rotated labels do not overlap.
	every := 1
	if n > 1 {
		every = int(math.Ceil(tickSize * 1.5 / (plot.w() / float64(n-1))))
		if every < 1 {
			every = 1
		}
	}
	for i, l := range s.Labels {
		if i%every != 0 {
			continue
		}
		x := xOf(i)
		dc.SetColor(spec.Grid)
		dc.DrawLine(x, plot.y1, x, plot.y1+5)
		dc.Stroke()

		dc.Push()
		dc.SetColor(spec.Foreground)
		dc.RotateAbout(gg.Radians(-45), x, plot.y1+8)
		dc.DrawStringAnchored(l, x, plot.y1+8, 1, 0.5)
		dc.Pop()
	}

	// Axes.
	dc.SetColor(spec.Foreground)
	dc.DrawLine(plot.x0, plot.y0, plot.x0, plot.y1)
	dc.Stroke()
	dc.DrawLine(plot.x0, yOf(math.Max(lo, 0)), plot.x1, yOf(math.Max(lo, 0)))
	dc.Stroke()

	// Filled areas first so no line is hidden under another fill.
	base := yOf(math.Max(lo, 0))
	if n > 1 {
		for di, d := range s.Datasets {
			dc.NewSubPath()
			dc.MoveTo(xOf(0), base)
			for i, v := range d.Values {
				dc.LineTo(xOf(i), yOf(v))
			}
			dc.LineTo(xOf(n-1), base)
			dc.ClosePath()
			dc.SetColor(spec.faded(spec.color(di)))
			dc.Fill()
		}
	}
	for di, d := range s.Datasets {
		c := spec.color(di)
		dc.SetColor(c)
		if n > 1 {
			dc.SetLineWidth(2.5)
			dc.NewSubPath()
			dc.MoveTo(xOf(0), yOf(d.Values[0]))
			for i := 1; i < n; i++ {
				dc.LineTo(xOf(i), yOf(d.Values[i]))
			}
			dc.Stroke()
		}
		for i, v := range d.Values {
			dc.DrawCircle(xOf(i), yOf(v), 3.5)
			dc.Fill()
		}
	}

	// Axis titles.
	dc.SetFontFace(r.tf.face(fs))
	dc.SetColor(spec.Foreground)
	if spec.XAxisTitle != "" {
		dc.DrawStringAnchored(spec.XAxisTitle, (plot.x0+plot.x1)/2, area.y1-xTitleHeight/2, 0.5, 0.5)
	}
	if spec.YAxisTitle != "" {
		cx, cy := area.x0+yTitleWidth/2, (plot.y0+plot.y1)/2
		dc.Push()
		dc.RotateAbout(gg.Radians(-90), cx, cy)
		dc.DrawStringAnchored(spec.YAxisTitle, cx, cy, 0.5, 0.5)
		dc.Pop()
	}
	return nil
}

// drawPie draws a pie, or a doughnut when hole (a fraction of the
// radius) is positive. Slices start at twelve o'clock and run clockwise.
func (r *PNGRenderer) drawPie(dc *gg.Context, spec ChartSpec, s aggregate.Series, area rect, hole float64) error {
	values := s.Datasets[0].Values
	total := s.Total(0)

	cx, cy := (area.x0+area.x1)/2, (area.y0+area.y1)/2
	radius := math.Min(area.w(), area.h())/2 - 4
	if radius < 10 {
		return fmt.Errorf("chart %q: %dx%d is too small", spec.Title, spec.Width, spec.Height)
	}

	type slice struct{ start, sweep float64 }
	slices := make([]slice, len(values))
	angle := -math.Pi / 2
	for i, v := range values {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		slices[i] = slice{start: angle, sweep: sweep}
		angle += sweep
	}

	for i, sl := range slices {
		if sl.sweep == 0 {
			continue
		}
		dc.NewSubPath()
		dc.MoveTo(cx, cy)
		dc.DrawArc(cx, cy, radius, sl.start, sl.start+sl.sweep)
		dc.ClosePath()
		dc.SetColor(spec.faded(spec.color(i)))
		dc.FillPreserve()
		dc.SetColor(spec.Background)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	labelRadius := radius * 0.62
	if hole > 0 {
		dc.DrawCircle(cx, cy, radius*hole)
		dc.SetColor(spec.Background)
		dc.Fill()
		labelRadius = radius * (1 + hole) / 2
	}

	dc.SetFontFace(r.tf.face(spec.FontSize * 0.85))
	dc.SetColor(spec.Foreground)
	for i, sl := range slices {
		share := values[i] / total
		if sl.sweep == 0 || share < 0.04 {
			continue
		}
		mid := sl.start + sl.sweep/2
		dc.DrawStringAnchored(fmt.Sprintf("%.1f%%", share*100), cx+math.Cos(mid)*labelRadius, cy+math.Sin(mid)*labelRadius, 0.5, 0.5)
	}
	return nil
}

// niceScale widens [lo, hi] to round tick steps, roughly ticks of them.
func niceScale(lo, hi float64, ticks int) (float64, float64, float64) {
	if hi <= lo {
		hi = lo + 1
	}
	rough := (hi - lo) / float64(ticks)
	mag := math.Pow(10, math.Floor(math.Log10(rough)))
	var step float64
	switch norm := rough / mag; {
	case norm <= 1:
		step = mag
	case norm <= 2:
		step = 2 * mag
	case norm <= 5:
		step = 5 * mag
	default:
		step = 10 * mag
	}
	return math.Floor(lo/step) * step, math.Ceil(hi/step) * step, step
}
