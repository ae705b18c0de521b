// csv_forecast reads a "period,value" CSV and writes the twelve-step forecast as CSV.
//
//	csv_forecast -input gifts.csv -method auto -target-year 2026 -output forecast.csv
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/analytics/forecast"
)

func main() {
	input := flag.String("input", "", "Input CSV with period,value rows")
	output := flag.String("output", "", "Output CSV file (default: stdout)")
	method := flag.String("method", "auto", "Forecast method (linear, moving_average, growth_rate, seasonal, auto)")
	targetYear := flag.Int("target-year", 0, "Year used to label forecast periods (optional)")
	evaluate := flag.Bool("evaluate", false, "Print backtest scores for every method to stderr")

	flag.Parse()

	if *input == "" {
		log.Fatal("Error: -input parameter is required")
	}

	m, err := forecast.ParseMethod(*method)
	if err != nil {
		log.Fatalf("Error: %v (available: %v)\n", err, forecast.Methods())
	}

	in, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Error opening input: %v\n", err)
	}
	defer in.Close()

	series, err := readSeries(in)
	if err != nil {
		log.Fatalf("Error reading series: %v\n", err)
	}
	if err := series.Validate(); err != nil {
		log.Fatalf("Error: invalid series: %v\n", err)
	}
	if series.Len() == 0 {
		log.Printf("Warning: No data points found, forecasting zeros\n")
	}

	if *evaluate {
		printEvaluation(os.Stderr, series.Values())
	}

	results := forecast.Generate(forecast.ForecastRequest{
		Series:     series,
		TargetYear: *targetYear,
		Method:     m,
	})

	out := io.Writer(os.Stdout)
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Error creating output: %v\n", err)
		}
		defer file.Close()
		out = file
	}

	if err := writeForecast(out, results); err != nil {
		log.Fatalf("Error writing forecast: %v\n", err)
	}

	if *output != "" {
		fmt.Fprintf(os.Stderr, "Forecast (%s) from %d points written to: %s\n", results[0].Method, series.Len(), *output)
	}
}

// readSeries parses period,value rows. A first row whose value column is not
// a number is treated as a header.
func readSeries(r io.Reader) (analytics.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var series analytics.Series
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid value %q", line, record[1])
		}
		series = append(series, analytics.HistoricalPoint{
			Period: strings.TrimSpace(record[0]),
			Value:  value,
		})
	}
	return series, nil
}

func writeForecast(w io.Writer, results []forecast.ForecastResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"step", "period", "predicted", "lower_bound", "upper_bound", "confidence", "method"}); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Step),
			r.Period,
			strconv.FormatFloat(r.Predicted, 'f', -1, 64),
			strconv.FormatFloat(r.LowerBound, 'f', -1, 64),
			strconv.FormatFloat(r.UpperBound, 'f', -1, 64),
			string(r.Confidence),
			string(r.Method),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func printEvaluation(w io.Writer, values []float64) {
	holdout := forecast.DefaultHoldout(len(values))
	scores, best, err := forecast.Evaluate(values, holdout)
	if err != nil {
		fmt.Fprintf(w, "Evaluation skipped: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Backtest over the last %d points:\n", holdout)
	for _, s := range scores {
		fmt.Fprintf(w, "  %-15s MAE=%.2f RMSE=%.2f MAPE=%.2f%%\n", s.Method, s.MAE, s.RMSE, s.MAPE)
	}
	fmt.Fprintf(w, "Recommended: %s\n", best)
}
