package main

import (
	"context"
	"fmt"
	"os"

	"orderviz/internal/infra/config"
	"orderviz/internal/infra/log"
	"orderviz/internal/pipeline"
)

// go run etc/tools/test_chart.go [png|svg]
// renders testdata/orders_sample.csv into etc/charts/
func main() {
	format := "png"
	if len(os.Args) > 1 {
		format = os.Args[1]
	}

	if err := log.Setup(log.Options{Level: "info", Console: true}); err != nil {
		fmt.Printf("Error setting up logs: %v\n", err)
		os.Exit(1)
	}

	cfg := &config.Config{
		Source: "testdata/orders_sample.csv",
		Aggregate: config.AggregateConfig{
			Policy:       "skip",
			Sort:         true,
			DailyMeasure: "commission",
		},
		Output: config.OutputConfig{Dir: "etc/charts", Format: format, XLSX: "aggregates.xlsx"},
	}

	fmt.Println("Generating test charts...")
	res, err := pipeline.Run(context.Background(), cfg, pipeline.Deps{})
	if err != nil {
		fmt.Printf("Error generating charts: %v\n", err)
		os.Exit(1)
	}

	for _, path := range res.Charts {
		fmt.Printf("Chart generated successfully: %s\n", path)
	}
	fmt.Printf("Open %s to see the result!\n", res.Page)
}
