package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/escotilha/nuvini-ai-fpa/internal/model"
)

// RateUpserter persists FX quotes parsed from an import source.
type RateUpserter interface {
	UpsertRates(ctx context.Context, rates []model.FXRate) error
}

// FXOpsCLI offers operational helpers to manage FX rates used by consolidation.
type FXOpsCLI struct {
	store RateUpserter
}

// NewFXOpsCLI constructs a new helper instance.
func NewFXOpsCLI(store RateUpserter) *FXOpsCLI {
	return &FXOpsCLI{store: store}
}

// FXImportMode enumerates supported execution strategies.
type FXImportMode string

const (
	// FXImportModeDry previews parsed rates without applying changes.
	FXImportModeDry FXImportMode = "dry"
	// FXImportModeApply persists rates after confirmation.
	FXImportModeApply FXImportMode = "apply"
)

// FXImportOptions configures the import command execution.
type FXImportOptions struct {
	Source       string
	SourceReader io.Reader
	Mode         FXImportMode
	JSONOutput   bool
	Stdout       io.Writer
	Stderr       io.Writer
	Stdin        io.Reader
	Confirm      func(io.Reader, io.Writer) (bool, error)
}

// FXImportSummary captures the structured reporting outcome.
type FXImportSummary struct {
	Mode    FXImportMode  `json:"mode"`
	Parsed  []FXImportRow `json:"parsed"`
	Applied int           `json:"applied"`
}

// FXImportRow summarises one rate parsed from the source.
type FXImportRow struct {
	Date     string `json:"date"`
	Pair     string `json:"pair"`
	RateType string `json:"rate_type"`
	Rate     string `json:"rate"`
}

// ImportCommand executes the fx import workflow. Exit code 0 means success,
// 1 means a usage or execution error.
func (c *FXOpsCLI) ImportCommand(ctx context.Context, opts FXImportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Mode == "" {
		opts.Mode = FXImportModeDry
	}
	mode := FXImportMode(strings.ToLower(string(opts.Mode)))
	switch mode {
	case FXImportModeDry, FXImportModeApply:
	default:
		fmt.Fprintf(opts.Stderr, "fx import: invalid mode %q (expected dry or apply)\n", opts.Mode)
		return 1
	}

	rates, err := loadImportRates(opts)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
		return 1
	}
	if len(rates) == 0 {
		fmt.Fprintln(opts.Stderr, "fx import: no rates found in source")
		return 1
	}

	summary := FXImportSummary{Mode: mode, Parsed: summarise(rates)}
	if mode == FXImportModeDry {
		if err := writeImportOutput(opts, summary); err != nil {
			fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
			return 1
		}
		return 0
	}

	confirm := opts.Confirm
	if confirm == nil {
		confirm = defaultImportConfirm
	}
	ok, err := confirm(opts.Stdin, opts.Stdout)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "fx import: confirmation failed: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(opts.Stderr, "fx import: cancelled by user")
		return 1
	}
	if c == nil || c.store == nil {
		fmt.Fprintln(opts.Stderr, "fx import: rate store not configured")
		return 1
	}
	if err := c.store.UpsertRates(ctx, rates); err != nil {
		fmt.Fprintf(opts.Stderr, "fx import: apply failed: %v\n", err)
		return 1
	}
	summary.Applied = len(rates)
	if err := writeImportOutput(opts, summary); err != nil {
		fmt.Fprintf(opts.Stderr, "fx import: %v\n", err)
		return 1
	}
	return 0
}

// loadImportRates parses the CSV source. Expected columns: date, from, to,
// type, rate and optionally source. Comment lines start with '#'.
func loadImportRates(opts FXImportOptions) ([]model.FXRate, error) {
	var data []byte
	var err error
	switch {
	case opts.SourceReader != nil:
		data, err = io.ReadAll(opts.SourceReader)
	case opts.Source == "-":
		if opts.Stdin == nil {
			return nil, errors.New("source - requires stdin")
		}
		data, err = io.ReadAll(opts.Stdin)
	case strings.TrimSpace(opts.Source) == "":
		return nil, errors.New("--source is required")
	default:
		data, err = os.ReadFile(opts.Source)
	}
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := nextNonEmptyRecord(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	indexes := map[string]int{"date": -1, "from": -1, "to": -1, "type": -1, "rate": -1, "source": -1}
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date", "rate_date":
			indexes["date"] = i
		case "from", "from_currency":
			indexes["from"] = i
		case "to", "to_currency":
			indexes["to"] = i
		case "type", "rate_type":
			indexes["type"] = i
		case "rate":
			indexes["rate"] = i
		case "source":
			indexes["source"] = i
		}
	}
	for _, required := range []string{"date", "from", "to", "type", "rate"} {
		if indexes[required] < 0 {
			return nil, fmt.Errorf("missing required column %q in source (need date, from, to, type, rate)", required)
		}
	}

	var rates []model.FXRate
	for {
		record, err := nextNonEmptyRecord(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if indexes["date"] >= len(record) || indexes["from"] >= len(record) ||
			indexes["to"] >= len(record) || indexes["type"] >= len(record) || indexes["rate"] >= len(record) {
			return nil, fmt.Errorf("invalid record length in source")
		}
		rateDate, err := time.Parse("2006-01-02", strings.TrimSpace(record[indexes["date"]]))
		if err != nil {
			return nil, fmt.Errorf("invalid date %q in source", record[indexes["date"]])
		}
		value, err := decimal.NewFromString(strings.TrimSpace(record[indexes["rate"]]))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %v", rateDate.Format("2006-01-02"), err)
		}
		source := "import"
		if indexes["source"] >= 0 && indexes["source"] < len(record) {
			if s := strings.TrimSpace(record[indexes["source"]]); s != "" {
				source = s
			}
		}
		rate, err := model.NewFXRate(
			model.Currency(strings.ToUpper(strings.TrimSpace(record[indexes["from"]]))),
			model.Currency(strings.ToUpper(strings.TrimSpace(record[indexes["to"]]))),
			rateDate,
			model.FXRateType(strings.ToUpper(strings.TrimSpace(record[indexes["type"]]))),
			value,
			source,
		)
		if err != nil {
			return nil, fmt.Errorf("row for %s: %w", rateDate.Format("2006-01-02"), err)
		}
		rates = append(rates, rate)
	}
	sort.Slice(rates, func(i, j int) bool {
		if !rates[i].RateDate.Equal(rates[j].RateDate) {
			return rates[i].RateDate.Before(rates[j].RateDate)
		}
		if rates[i].From != rates[j].From {
			return rates[i].From < rates[j].From
		}
		return rates[i].RateType < rates[j].RateType
	})
	return rates, nil
}

func nextNonEmptyRecord(r *csv.Reader) ([]string, error) {
	for {
		record, err := r.Read()
		if err != nil {
			return nil, err
		}
		skip := true
		for _, field := range record {
			trimmed := strings.TrimSpace(field)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			skip = false
		}
		if skip {
			continue
		}
		return record, nil
	}
}

func summarise(rates []model.FXRate) []FXImportRow {
	rows := make([]FXImportRow, len(rates))
	for i, rate := range rates {
		rows[i] = FXImportRow{
			Date:     rate.RateDate.Format("2006-01-02"),
			Pair:     string(rate.From) + "/" + string(rate.To),
			RateType: string(rate.RateType),
			Rate:     rate.Rate.String(),
		}
	}
	return rows
}

func writeImportOutput(opts FXImportOptions, summary FXImportSummary) error {
	if opts.JSONOutput {
		return json.NewEncoder(opts.Stdout).Encode(summary)
	}
	renderImportHuman(opts.Stdout, summary)
	return nil
}

func renderImportHuman(out io.Writer, summary FXImportSummary) {
	fmt.Fprintf(out, "FX import (%s): %d rate(s) parsed\n", summary.Mode, len(summary.Parsed))
	for _, row := range summary.Parsed {
		fmt.Fprintf(out, " - %s %s %s %s\n", row.Date, row.Pair, row.RateType, row.Rate)
	}
	if summary.Applied > 0 {
		fmt.Fprintf(out, "Applied %d rate(s).\n", summary.Applied)
	}
}

func defaultImportConfirm(r io.Reader, w io.Writer) (bool, error) {
	fmt.Fprint(w, "Apply FX import? Type YES to confirm: ")
	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "YES"), nil
}
