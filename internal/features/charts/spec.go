package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"orderviz/internal/features/aggregate"
)

var (
	ErrNoData     = errors.New("series has nothing to plot")
	ErrMisaligned = errors.New("series values are not aligned with labels")
)

type Kind string

const (
	KindLine     Kind = "line"
	KindPie      Kind = "pie"
	KindDoughnut Kind = "doughnut"
)

// Renderer turns one series into one image.
type Renderer interface {
	Render(w io.Writer, spec ChartSpec, s aggregate.Series) error
	// Ext is the file extension of the produced images, without the dot.
	Ext() string
}

// Style is shared by every chart kind; ChartSpec adds the per-chart parts.
type Style struct {
	Font           string // TTF path; empty means search the usual places
	FontSize       float64
	Background     color.RGBA
	Foreground     color.RGBA
	Grid           color.RGBA
	Palette        []color.RGBA
	FillAlpha      float64
	LegendPosition string // bottom, top or none
}

type ChartSpec struct {
	Style

	Kind       Kind
	Title      string
	Width      int
	Height     int
	XAxisTitle string
	YAxisTitle string
	// ValueFormat is a fmt verb applied to plotted values in axis ticks
	// and legend entries.
	ValueFormat string
}

func (s ChartSpec) formatValue(v float64) string {
	if s.ValueFormat == "" {
		return fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf(s.ValueFormat, v)
}

func (s ChartSpec) color(i int) color.RGBA {
	if len(s.Palette) == 0 {
		return s.Foreground
	}
	return s.Palette[i%len(s.Palette)]
}

// faded applies FillAlpha to c.
func (s ChartSpec) faded(c color.RGBA) color.NRGBA {
	a := s.FillAlpha
	if a <= 0 || a > 1 {
		a = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a * 255)}
}

// DefaultStyle mirrors the look of the original dashboard.
func DefaultStyle() Style {
	return Style{
		FontSize:   16,
		Background: color.RGBA{255, 255, 255, 255},
		Foreground: color.RGBA{51, 51, 51, 255},
		Grid:       color.RGBA{224, 224, 224, 255},
		Palette: []color.RGBA{
			{255, 99, 132, 255},
			{54, 162, 235, 255},
			{255, 206, 86, 255},
			{75, 192, 192, 255},
			{153, 102, 255, 255},
			{255, 159, 64, 255},
		},
		FillAlpha:      0.7,
		LegendPosition: "bottom",
	}
}

// Specs holds the three charts of one run.
type Specs struct {
	Daily       ChartSpec
	Payment     ChartSpec
	DeliveryFee ChartSpec
}

// DefaultSpecs derives every chart from base, overriding only what
// differs per kind.
func DefaultSpecs(base Style, secondMeasure string) Specs {
	daily := base
	// Line fills use their own pair of colours, lighter than the pie.
	daily.Palette = []color.RGBA{{54, 162, 235, 255}, {242, 10, 110, 255}}
	daily.FillAlpha = 0.2

	return Specs{
		Daily: ChartSpec{
			Style:       daily,
			Kind:        KindLine,
			Title:       fmt.Sprintf("Daily Trends: Order Value and %s", secondMeasure),
			Width:       1400,
			Height:      500,
			XAxisTitle:  "Date",
			YAxisTitle:  "Amount ($)",
			ValueFormat: "$%.2f",
		},
		Payment: ChartSpec{
			Style:       base,
			Kind:        KindPie,
			Title:       "Payment Method Distribution",
			Width:       700,
			Height:      700,
			ValueFormat: "%.0f orders",
		},
		DeliveryFee: ChartSpec{
			Style:       base,
			Kind:        KindDoughnut,
			Title:       "Delivery Fee Frequency",
			Width:       700,
			Height:      700,
			ValueFormat: "%.0f orders",
		},
	}
}

// validate is shared by both renderers.
func validate(spec ChartSpec, s aggregate.Series) error {
	if spec.Width <= 0 || spec.Height <= 0 {
		return fmt.Errorf("chart %q has invalid size %dx%d", spec.Title, spec.Width, spec.Height)
	}
	if s.Empty() {
		return ErrNoData
	}
	if !s.Aligned() {
		return ErrMisaligned
	}
	switch spec.Kind {
	case KindLine:
	case KindPie, KindDoughnut:
		if s.Total(0) <= 0 {
			return ErrNoData
		}
	default:
		return fmt.Errorf("unknown chart kind %q", spec.Kind)
	}
	return nil
}
