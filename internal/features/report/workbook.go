package report

import (
	"fmt"
	"time"

	"orderviz/internal/features/aggregate"
	"orderviz/internal/infra/fs"

	"github.com/xuri/excelize/v2"
)

const RunSheet = "Run"

// NamedSeries is one aggregate destined for its own sheet.
type NamedSeries struct {
	Sheet  string
	Series aggregate.Series
	Stats  aggregate.Stats
}

type RunInfo struct {
	RunID       string
	Source      string
	Policy      string
	GeneratedAt time.Time
}

// WriteWorkbook writes one sheet per series (labels in column A, one
// column per dataset) followed by a Run sheet.
func WriteWorkbook(path string, run RunInfo, sheets []NamedSeries) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook needs at least one series")
	}

	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, ns := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, ns.Sheet); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", ns.Sheet, err)
			}
		} else if _, err := f.NewSheet(ns.Sheet); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", ns.Sheet, err)
		}
		if err := writeSeries(f, ns); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(RunSheet); err != nil {
		return fmt.Errorf("failed to add run sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Run ID", run.RunID},
		{"Source", run.Source},
		{"Policy", run.Policy},
		{"Generated", run.GeneratedAt.Format(time.RFC3339)},
		{},
		{"Sheet", "Considered", "Used", "Skipped", "Substituted"},
	}
	for _, ns := range sheets {
		rows = append(rows, []interface{}{ns.Sheet, ns.Stats.Considered, ns.Stats.Used, ns.Stats.Skipped, ns.Stats.Substituted})
	}
	if err := setRows(f, RunSheet, rows); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	return fs.WriteFileAtomic(path, buf.Bytes())
}

func writeSeries(f *excelize.File, ns NamedSeries) error {
	header := []interface{}{"Label"}
	for _, d := range ns.Series.Datasets {
		header = append(header, d.Name)
	}
	rows := [][]interface{}{header}
	for i, l := range ns.Series.Labels {
		row := []interface{}{l}
		for _, d := range ns.Series.Datasets {
			row = append(row, d.Values[i])
		}
		rows = append(rows, row)
	}
	if err := setRows(f, ns.Sheet, rows); err != nil {
		return err
	}
	return f.SetColWidth(ns.Sheet, "A", "A", 18)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
