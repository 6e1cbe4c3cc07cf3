package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"orderviz/internal/clients_api/csvfeed"
	"orderviz/internal/features/aggregate"
	"orderviz/internal/features/charts"
	"orderviz/internal/features/orders"
	"orderviz/internal/features/report"
	"orderviz/internal/features/telegram"
	"orderviz/internal/infra/config"
	"orderviz/internal/infra/fs"
	"orderviz/internal/infra/log"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Output file stems, one per chart.
const (
	DailyChart       = "order_value_daily"
	PaymentChart     = "payment_methods"
	DeliveryFeeChart = "delivery_fee_frequency"
)

var chartStems = []string{DailyChart, PaymentChart, DeliveryFeeChart}

// Publisher delivers rendered charts. *telegram.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, summary string, photos []telegram.Photo) error
}

// Deps lets callers swap the collaborators. Nil fields are built from the
// config.
type Deps struct {
	Fetcher   Fetcher
	Renderer  charts.Renderer
	Publisher Publisher
	Now       func() time.Time
}

// Result describes a successful run.
type Result struct {
	RunID    string
	Summary  *Summary
	Charts   []string
	Page     string
	Workbook string
}

// ReportedError marks a failure that has already been logged and written
// to the status page.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// IsReported tells the CLI not to print err a second time.
func IsReported(err error) bool {
	var r *ReportedError
	return errors.As(err, &r)
}

type chartJob struct {
	stem   string
	spec   charts.ChartSpec
	series aggregate.Series
	stats  aggregate.Stats
}

// Run executes the whole pipeline once. Every failure, panics included,
// ends with no chart files from this run in the output directory, an
// error page, one LogError and a *ReportedError.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (res *Result, err error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	runID := uuid.NewString()
	started := deps.Now()
	outDir := cfg.Output.Dir

	var (
		stage    *fs.Stage
		promoted []string
		workbook string
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
		if err == nil {
			return
		}
		res = nil

		if stage != nil {
			_ = stage.Discard()
		}
		for _, p := range promoted {
			os.Remove(p)
		}
		if workbook != "" {
			os.Remove(workbook)
		}
		if rmErr := fs.RemoveStale(outDir, staleNames()...); rmErr != nil {
			log.LogWarn("Failed to clear old charts", zap.Error(rmErr))
		}
		if _, pageErr := report.WritePage(outDir, report.Page{
			Source:      cfg.Source,
			RunID:       runID,
			GeneratedAt: started,
			Error:       err.Error(),
			FailedStep:  failedStep(err),
		}); pageErr != nil {
			log.LogWarn("Failed to write error page", zap.Error(pageErr))
		}

		log.LogError("Render failed",
			zap.String("run_id", runID),
			zap.String("source", cfg.Source),
			zap.Error(err))
		err = &ReportedError{Err: err}
	}()

	if err := fs.EnsureDir(outDir); err != nil {
		return nil, err
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(cfg.Fetch)
	}
	summary, err := Aggregate(ctx, cfg, fetcher)
	if err != nil {
		return nil, err
	}

	specs, fontPath, err := BuildSpecs(cfg, summary.SecondMeasure)
	if err != nil {
		return nil, err
	}
	renderer := deps.Renderer
	if renderer == nil {
		if renderer, err = NewRenderer(cfg.Output.Format, fontPath); err != nil {
			return nil, err
		}
	}

	stage, err = fs.NewStage(outDir)
	if err != nil {
		return nil, err
	}
	jobs := []chartJob{
		{DailyChart, specs.Daily, summary.Daily, summary.DailyStats},
		{PaymentChart, specs.Payment, summary.Payment, summary.PaymentStats},
		{DeliveryFeeChart, specs.DeliveryFee, summary.DeliveryFee, summary.DeliveryFeeStats},
	}
	links := make([]report.ChartLink, 0, len(jobs))
	for _, job := range jobs {
		name := job.stem + "." + renderer.Ext()
		if err := renderChart(renderer, stage.Path(name), job.spec, job.series); err != nil {
			return nil, err
		}
		stats := job.stats
		links = append(links, report.ChartLink{Title: job.spec.Title, File: name, Stats: &stats})
	}

	// Old files of the other format would otherwise sit next to the new ones.
	if err := fs.RemoveStale(outDir, staleNames()...); err != nil {
		return nil, err
	}
	promoted, err = stage.Promote()
	if err != nil {
		return nil, err
	}
	stage = nil

	result := &Result{RunID: runID, Summary: summary, Charts: promoted}

	var workbookLink string
	if cfg.Output.XLSX != "" {
		workbook = cfg.Output.XLSX
		if !filepath.IsAbs(workbook) {
			workbook = filepath.Join(outDir, workbook)
		}
		if err := writeWorkbook(workbook, runID, started, summary); err != nil {
			return nil, err
		}
		result.Workbook = workbook
		if rel, relErr := filepath.Rel(outDir, workbook); relErr == nil {
			workbookLink = filepath.ToSlash(rel)
		}
	}

	result.Page, err = report.WritePage(outDir, report.Page{
		Source:      cfg.Source,
		RunID:       runID,
		GeneratedAt: started,
		Charts:      links,
		Workbook:    workbookLink,
	})
	if err != nil {
		return nil, err
	}

	log.LogSuccess("Charts rendered",
		zap.String("run_id", runID),
		zap.String("dir", outDir),
		zap.Int("charts", len(promoted)),
		zap.Int64("duration_ms", deps.Now().Sub(started).Milliseconds()))

	if pub := publisherFor(cfg, deps.Publisher); pub != nil {
		photos := make([]telegram.Photo, 0, len(links))
		for _, l := range links {
			photos = append(photos, telegram.Photo{Path: filepath.Join(outDir, l.File), Caption: l.Title})
		}
		// Charts are already on disk; a delivery problem does not fail the run.
		if err := pub.Publish(ctx, SummaryText(summary), photos); err != nil {
			log.LogWarn("Failed to publish charts", zap.Error(err))
		}
	}
	return result, nil
}

// failedStep names the part of the run err came from, for the status page.
func failedStep(err error) string {
	var fetchErr *csvfeed.FetchError
	var parseErr *orders.ParseError
	if errors.As(err, &fetchErr) || errors.As(err, &parseErr) {
		return "Failed to load data"
	}
	return "Render failed"
}

func staleNames() []string {
	var names []string
	for _, stem := range chartStems {
		for _, ext := range []string{"png", "svg"} {
			names = append(names, stem+"."+ext)
		}
	}
	return names
}
