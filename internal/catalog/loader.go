// Package catalog reads medicine catalogs from CSV or XLSX files for bulk
// seeding.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported catalog format")

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "02/01/2006"}

// header aliases, lowercased with spaces folded to underscores
var columnAliases = map[string]string{
	"name":                "name",
	"medicine":            "name",
	"medicine_name":       "name",
	"category":            "category",
	"description":         "description",
	"buying_price":        "buying_price",
	"cost":                "buying_price",
	"cost_price":          "buying_price",
	"selling_price":       "selling_price",
	"price":               "selling_price",
	"stock":               "stock",
	"stock_quantity":      "stock",
	"quantity":            "stock",
	"low_stock_threshold": "threshold",
	"threshold":           "threshold",
	"expiry_date":         "expiry",
	"expiry":              "expiry",
}

// RowError points at the offending line (1-based, header is line 1).
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Load reads a catalog file, picking the parser from the extension.
func Load(path string) ([]service.MedicineInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func ReadCSV(r io.Reader) ([]service.MedicineInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRecords(records)
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]service.MedicineInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheets[0], err)
	}
	return parseRecords(records)
}

func parseRecords(records [][]string) ([]service.MedicineInput, error) {
	if len(records) == 0 {
		return nil, errors.New("catalog is empty")
	}

	columns := make(map[string]int)
	for i, h := range records[0] {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := columns[canonical]; !dup {
				columns[canonical] = i
			}
		}
	}
	for _, required := range []string{"name", "buying_price", "selling_price"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("catalog header is missing %s", required)
		}
	}

	out := make([]service.MedicineInput, 0, len(records)-1)
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		in, err := parseRow(record, columns, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func parseRow(record []string, columns map[string]int, line int) (service.MedicineInput, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	fail := func(column string, err error) (service.MedicineInput, error) {
		return service.MedicineInput{}, &RowError{Line: line, Column: column, Err: err}
	}

	in := service.MedicineInput{
		Name:        cell("name"),
		Category:    optional(cell("category")),
		Description: optional(cell("description")),
	}

	var err error
	if in.BuyingPrice, err = decimal.NewFromString(cell("buying_price")); err != nil {
		return fail("buying_price", err)
	}
	if in.SellingPrice, err = decimal.NewFromString(cell("selling_price")); err != nil {
		return fail("selling_price", err)
	}
	if v := cell("stock"); v != "" {
		if in.StockQuantity, err = strconv.Atoi(v); err != nil {
			return fail("stock", err)
		}
	}
	if v := cell("threshold"); v != "" {
		if in.LowStockThreshold, err = strconv.Atoi(v); err != nil {
			return fail("threshold", err)
		}
	}
	if v := cell("expiry"); v != "" {
		expiry, err := parseDate(v)
		if err != nil {
			return fail("expiry", err)
		}
		in.ExpiryDate = &expiry
	}
	return in, nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
