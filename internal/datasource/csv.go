package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"trendcharts/internal/series"
)

// LoadCSVFile opens path and parses it with LoadCSV.
func LoadCSVFile(path, periodColumn string) ([]series.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	out, err := LoadCSV(f, periodColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// LoadCSV reads a wide table: a header row, one period column and one column per
// series. Empty cells are gaps. Values may use thousands separators.
func LoadCSV(r io.Reader, periodColumn string) ([]series.Series, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("csv needs a header and at least one row")
	}
	header := records[0]
	pcol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), periodColumn) {
			pcol = i
			break
		}
	}
	if pcol < 0 {
		return nil, fmt.Errorf("column %q not found in header %v", periodColumn, header)
	}

	rows := records[1:]
	periods := make([]int, len(rows))
	for i, row := range rows {
		if pcol >= len(row) {
			return nil, fmt.Errorf("row %d: missing period column", i+2)
		}
		d, err := parseNumber(row[pcol])
		if err != nil || d == nil || !d.IsInteger() {
			return nil, fmt.Errorf("row %d: invalid period %q", i+2, row[pcol])
		}
		periods[i] = int(d.IntPart())
	}
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return periods[order[a]] < periods[order[b]] })

	var out []series.Series
	for col, name := range header {
		if col == pcol {
			continue
		}
		name = strings.TrimSpace(name)
		pts := make([]series.Point, 0, len(rows))
		for _, ri := range order {
			row := rows[ri]
			if col >= len(row) {
				pts = append(pts, series.Missing(periods[ri]))
				continue
			}
			d, err := parseNumber(row[col])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", ri+2, name, err)
			}
			if d == nil {
				pts = append(pts, series.Missing(periods[ri]))
				continue
			}
			v, _ := d.Float64()
			pts = append(pts, series.At(periods[ri], v))
		}
		s, err := series.New(name, pts...)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, errors.New("csv has no value columns")
	}
	return out, nil
}

// parseNumber returns nil for an empty cell.
func parseNumber(cell string) (*decimal.Decimal, error) {
	cell = strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if cell == "" || strings.EqualFold(cell, "na") || strings.EqualFold(cell, "nan") {
		return nil, nil
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", cell, err)
	}
	return &d, nil
}
