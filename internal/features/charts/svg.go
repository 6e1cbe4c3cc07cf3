package charts

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"orderviz/internal/features/aggregate"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// SVGRenderer produces vector charts with go-chart.
type SVGRenderer struct {
	font *truetype.Font
}

func NewSVGRenderer(fontPath string) *SVGRenderer {
	return &SVGRenderer{font: loadTypeface(fontPath).font}
}

func (r *SVGRenderer) Ext() string { return "svg" }

func toDrawing(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

func fadedDrawing(spec ChartSpec, c color.RGBA) drawing.Color {
	n := spec.faded(c)
	return drawing.Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

func (r *SVGRenderer) Render(w io.Writer, spec ChartSpec, s aggregate.Series) error {
	if err := validate(spec, s); err != nil {
		return err
	}
	if spec.FontSize <= 0 {
		spec.FontSize = DefaultStyle().FontSize
	}

	var err error
	switch spec.Kind {
	case KindLine:
		err = r.line(spec, s).Render(chart.SVG, w)
	case KindPie:
		err = chart.PieChart{
			Title:      spec.Title,
			TitleStyle: r.titleStyle(spec),
			Width:      spec.Width,
			Height:     spec.Height,
			Font:       r.font,
			Background: chart.Style{FillColor: toDrawing(spec.Background)},
			Values:     r.values(spec, s),
		}.Render(chart.SVG, w)
	case KindDoughnut:
		err = chart.DonutChart{
			Title:      spec.Title,
			TitleStyle: r.titleStyle(spec),
			Width:      spec.Width,
			Height:     spec.Height,
			Font:       r.font,
			Background: chart.Style{FillColor: toDrawing(spec.Background)},
			Values:     r.values(spec, s),
		}.Render(chart.SVG, w)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s chart %q: %w", spec.Kind, spec.Title, err)
	}
	return nil
}

func (r *SVGRenderer) titleStyle(spec ChartSpec) chart.Style {
	return chart.Style{FontSize: spec.FontSize * 1.2, FontColor: toDrawing(spec.Foreground)}
}

func (r *SVGRenderer) values(spec ChartSpec, s aggregate.Series) []chart.Value {
	out := make([]chart.Value, 0, len(s.Labels))
	for i, l := range s.Labels {
		v := s.Datasets[0].Values[i]
		out = append(out, chart.Value{
			Label: fmt.Sprintf("%s (%s)", l, spec.formatValue(v)),
			Value: v,
			Style: chart.Style{
				FillColor:   fadedDrawing(spec, spec.color(i)),
				StrokeColor: toDrawing(spec.Background),
				StrokeWidth: 2,
				FontColor:   toDrawing(spec.Foreground),
			},
		})
	}
	return out
}

func (r *SVGRenderer) line(spec ChartSpec, s aggregate.Series) *chart.Chart {
	n := len(s.Labels)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	lo, hi := 0.0, 0.0
	for _, d := range s.Datasets {
		for _, v := range d.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	lo, hi, _ = niceScale(lo, hi, 5)

	graph := &chart.Chart{
		Title:      spec.Title,
		TitleStyle: r.titleStyle(spec),
		Width:      spec.Width,
		Height:     spec.Height,
		Font:       r.font,
		Background: chart.Style{
			FillColor: toDrawing(spec.Background),
			Padding:   chart.Box{Top: int(spec.FontSize * 3), Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  spec.XAxisTitle,
			Ticks: xTicks(s.Labels, spec.Width),
			TickStyle: chart.Style{
				TextRotationDegrees: 45,
			},
		},
		YAxis: chart.YAxis{
			Name:  spec.YAxisTitle,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return spec.formatValue(f)
				}
				return fmt.Sprint(v)
			},
			GridMajorStyle: chart.Style{StrokeColor: toDrawing(spec.Grid), StrokeWidth: 1},
		},
	}

	for i, d := range s.Datasets {
		c := spec.color(i)
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    d.Name,
			XValues: xs,
			YValues: d.Values,
			Style: chart.Style{
				StrokeColor: toDrawing(c),
				StrokeWidth: 2.5,
				FillColor:   fadedDrawing(spec, c),
				DotColor:    toDrawing(c),
				DotWidth:    3,
			},
		})
	}

	if spec.LegendPosition != "none" {
		graph.Elements = []chart.Renderable{chart.Legend(graph)}
	}
	return graph
}

// xTicks thins the date labels to what fits across width. The first and
// last index always get a tick because go-chart takes the x range from
// the ticks.
func xTicks(labels []string, width int) []chart.Tick {
	n := len(labels)
	if n == 1 {
		// A zero-width range is rejected, so pad a single day on both sides.
		return []chart.Tick{{Value: -0.5}, {Value: 0, Label: labels[0]}, {Value: 0.5}}
	}

	every := int(math.Ceil(float64(n) * 28 / float64(width)))
	if every < 1 {
		every = 1
	}
	var ticks []chart.Tick
	for i, l := range labels {
		if i%every == 0 || i == n-1 {
			ticks = append(ticks, chart.Tick{Value: float64(i), Label: l})
		}
	}
	return ticks
}
