package pipeline

import (
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"orderviz/internal/features/aggregate"
	"orderviz/internal/features/charts"
	"orderviz/internal/features/orders"
	"orderviz/internal/features/report"
	"orderviz/internal/features/telegram"
	"orderviz/internal/infra/config"
	"orderviz/internal/infra/fs"
	"orderviz/internal/infra/log"

	"go.uber.org/zap"
)

// BuildSpecs derives the three chart specs, applying the theme file when
// one is configured. The returned font path is the one the renderer
// should try first.
func BuildSpecs(cfg *config.Config, second orders.Measure) (charts.Specs, string, error) {
	style := charts.DefaultStyle()
	var theme *charts.Theme
	if cfg.Output.Theme != "" {
		t, err := charts.LoadTheme(cfg.Output.Theme)
		if err != nil {
			return charts.Specs{}, "", err
		}
		if style, err = t.ApplyStyle(style); err != nil {
			return charts.Specs{}, "", err
		}
		theme = t
	}

	specs := charts.DefaultSpecs(style, string(second))
	if theme != nil {
		if err := theme.ApplyCharts(&specs); err != nil {
			return charts.Specs{}, "", err
		}
	}

	fontPath := cfg.Output.Font
	if fontPath == "" {
		fontPath = style.Font
	}
	return specs, fontPath, nil
}

func NewRenderer(format, fontPath string) (charts.Renderer, error) {
	switch format {
	case "", "png":
		return charts.NewPNGRenderer(fontPath), nil
	case "svg":
		return charts.NewSVGRenderer(fontPath), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func renderChart(r charts.Renderer, path string, spec charts.ChartSpec, s aggregate.Series) error {
	start := time.Now()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.Render(f, spec, s); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %q: %w", spec.Title, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	size, err := fs.CheckNonEmpty(path)
	if err != nil {
		return err
	}
	log.LogDebug("Chart rendered",
		zap.String("title", spec.Title),
		zap.String("kind", string(spec.Kind)),
		zap.Int("points", len(s.Labels)),
		zap.Int64("size", size),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

func writeWorkbook(path, runID string, at time.Time, s *Summary) error {
	return report.WriteWorkbook(path, report.RunInfo{
		RunID:       runID,
		Source:      s.Source,
		Policy:      string(s.Policy),
		GeneratedAt: at,
	}, []report.NamedSeries{
		{Sheet: "Daily Sums", Series: s.Daily, Stats: s.DailyStats},
		{Sheet: "Payment Methods", Series: s.Payment, Stats: s.PaymentStats},
		{Sheet: "Delivery Fee Frequency", Series: s.DeliveryFee, Stats: s.DeliveryFeeStats},
	})
}

func publisherFor(cfg *config.Config, injected Publisher) Publisher {
	if injected != nil {
		return injected
	}
	if !cfg.Telegram.Enabled() {
		return nil
	}
	if cfg.Output.Format == "svg" {
		log.LogWarn("Telegram publishing needs png output, skipping")
		return nil
	}
	pub, err := telegram.Connect(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.LogWarn("Telegram publishing disabled", zap.Error(err))
		return nil
	}
	return pub
}

// SummaryText is the HTML caption sent ahead of the charts.
func SummaryText(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Food orders</b>\n")
	fmt.Fprintf(&b, "Source: %s\n", html.EscapeString(s.Source))
	fmt.Fprintf(&b, "Orders: %d", s.Rows)
	if s.DailyStats.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", s.DailyStats.Skipped)
	}
	b.WriteString("\n")
	if n := len(s.Daily.Labels); n > 0 {
		fmt.Fprintf(&b, "Days: %d (%s to %s)\n", n, s.Daily.Labels[0], s.Daily.Labels[n-1])
	}
	for i, d := range s.Daily.Datasets {
		fmt.Fprintf(&b, "%s: $%.2f\n", html.EscapeString(d.Name), s.Daily.Total(i))
	}
	return strings.TrimRight(b.String(), "\n")
}
