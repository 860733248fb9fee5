package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// timeLayouts are tried in order when parsing the timestamp column. Purely
// numeric values fall through to unix seconds.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// loadBars reads an OHLCV CSV file. The header row names the columns and any
// order is accepted; recognized names (case-insensitive) are timestamp/time/
// date/datetime, open, high, low, close, volume. High, low and close are
// required, the rest optional.
func loadBars(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var bars []models.Bar
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line++

		bar, err := parseBar(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s contains no data rows", path)
	}
	return bars, nil
}

// columns maps each field to its CSV column index; -1 means absent.
type columns struct {
	timestamp, open, high, low, close, volume int
}

func mapColumns(header []string) (columns, error) {
	cols := columns{timestamp: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "timestamp", "time", "date", "datetime":
			cols.timestamp = i
		case "open", "o":
			cols.open = i
		case "high", "h":
			cols.high = i
		case "low", "l":
			cols.low = i
		case "close", "c":
			cols.close = i
		case "volume", "vol", "v":
			cols.volume = i
		}
	}

	var missing []string
	if cols.high == -1 {
		missing = append(missing, "high")
	}
	if cols.low == -1 {
		missing = append(missing, "low")
	}
	if cols.close == -1 {
		missing = append(missing, "close")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseBar(record []string, cols columns) (models.Bar, error) {
	var bar models.Bar
	var err error

	if bar.High, err = parseField(record, cols.high, "high"); err != nil {
		return bar, err
	}
	if bar.Low, err = parseField(record, cols.low, "low"); err != nil {
		return bar, err
	}
	if bar.Close, err = parseField(record, cols.close, "close"); err != nil {
		return bar, err
	}
	if present(record, cols.open) {
		if bar.Open, err = parseField(record, cols.open, "open"); err != nil {
			return bar, err
		}
	}
	if present(record, cols.volume) {
		if bar.Volume, err = parseField(record, cols.volume, "volume"); err != nil {
			return bar, err
		}
	}
	if present(record, cols.timestamp) {
		if bar.Timestamp, err = parseTimestamp(record[cols.timestamp]); err != nil {
			return bar, err
		}
	}
	return bar, nil
}

func present(record []string, idx int) bool {
	return idx >= 0 && idx < len(record) && strings.TrimSpace(record[idx]) != ""
}

func parseField(record []string, idx int, name string) (float64, error) {
	if idx < 0 || idx >= len(record) {
		return 0, fmt.Errorf("missing %s value", name)
	}
	raw := strings.TrimSpace(record[idx])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return v, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
