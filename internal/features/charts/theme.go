package charts

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Theme is the YAML form of chart overrides. Zero values keep defaults.
//
//	font: etc/fonts/Inter-Regular.ttf
//	palette: ["#ff6384", "#36a2eb"]
//	charts:
//	  daily: {title: "Revenue", width: 1600}
type Theme struct {
	Font           string                `yaml:"font"`
	FontSize       float64               `yaml:"font_size"`
	Background     string                `yaml:"background"`
	Foreground     string                `yaml:"foreground"`
	Palette        []string              `yaml:"palette"`
	FillAlpha      float64               `yaml:"fill_alpha"`
	LegendPosition string                `yaml:"legend"`
	Charts         map[string]ChartTheme `yaml:"charts"`
}

type ChartTheme struct {
	Title       string   `yaml:"title"`
	Width       int      `yaml:"width"`
	Height      int      `yaml:"height"`
	XAxisTitle  string   `yaml:"x_axis"`
	YAxisTitle  string   `yaml:"y_axis"`
	ValueFormat string   `yaml:"value_format"`
	Palette     []string `yaml:"palette"`
	FillAlpha   float64  `yaml:"fill_alpha"`
}

func LoadTheme(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme: %w", err)
	}
	var t Theme
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse theme %s: %w", path, err)
	}
	for name := range t.Charts {
		switch name {
		case "daily", "payment", "delivery_fee":
		default:
			return nil, fmt.Errorf("theme %s: unknown chart %q", path, name)
		}
	}
	return &t, nil
}

// ApplyStyle overlays the global part of the theme on base.
func (t *Theme) ApplyStyle(base Style) (Style, error) {
	if t.Font != "" {
		base.Font = t.Font
	}
	if t.FontSize > 0 {
		base.FontSize = t.FontSize
	}
	if t.FillAlpha > 0 {
		base.FillAlpha = t.FillAlpha
	}
	if t.LegendPosition != "" {
		base.LegendPosition = t.LegendPosition
	}
	var err error
	if t.Background != "" {
		if base.Background, err = ParseHexColor(t.Background); err != nil {
			return base, err
		}
	}
	if t.Foreground != "" {
		if base.Foreground, err = ParseHexColor(t.Foreground); err != nil {
			return base, err
		}
	}
	if len(t.Palette) > 0 {
		if base.Palette, err = parsePalette(t.Palette); err != nil {
			return base, err
		}
	}
	return base, nil
}

// ApplyCharts overlays the per-chart part of the theme.
func (t *Theme) ApplyCharts(specs *Specs) error {
	for name, ct := range t.Charts {
		var spec *ChartSpec
		switch name {
		case "daily":
			spec = &specs.Daily
		case "payment":
			spec = &specs.Payment
		case "delivery_fee":
			spec = &specs.DeliveryFee
		}
		if err := ct.apply(spec); err != nil {
			return fmt.Errorf("theme chart %q: %w", name, err)
		}
	}
	return nil
}

func (ct ChartTheme) apply(spec *ChartSpec) error {
	if ct.Title != "" {
		spec.Title = ct.Title
	}
	if ct.Width > 0 {
		spec.Width = ct.Width
	}
	if ct.Height > 0 {
		spec.Height = ct.Height
	}
	if ct.XAxisTitle != "" {
		spec.XAxisTitle = ct.XAxisTitle
	}
	if ct.YAxisTitle != "" {
		spec.YAxisTitle = ct.YAxisTitle
	}
	if ct.ValueFormat != "" {
		spec.ValueFormat = ct.ValueFormat
	}
	if ct.FillAlpha > 0 {
		spec.FillAlpha = ct.FillAlpha
	}
	if len(ct.Palette) > 0 {
		p, err := parsePalette(ct.Palette)
		if err != nil {
			return err
		}
		spec.Palette = p
	}
	return nil
}

func parsePalette(in []string) ([]color.RGBA, error) {
	out := make([]color.RGBA, 0, len(in))
	for _, s := range in {
		c, err := ParseHexColor(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ParseHexColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
