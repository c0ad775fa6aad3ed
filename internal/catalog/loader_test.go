package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Medicine Name,Category,Cost,Price,Stock,Threshold,Expiry Date
Paracetamol 500mg,Analgesic,6,10,50,10,2026-01-31
Amoxicillin,,12.5,18.75,20,,

Zinc,Supplement,1,2,,5,31/12/2025
`

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Name != "Paracetamol 500mg" || first.Category == nil || *first.Category != "Analgesic" {
		t.Fatalf("unexpected first row %+v", first)
	}
	if !first.BuyingPrice.Equal(decimal.NewFromInt(6)) || !first.SellingPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected prices %s/%s", first.BuyingPrice, first.SellingPrice)
	}
	if first.StockQuantity != 50 || first.LowStockThreshold != 10 {
		t.Fatalf("unexpected quantities %+v", first)
	}
	if first.ExpiryDate == nil || !first.ExpiryDate.Equal(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", first.ExpiryDate)
	}

	second := rows[1]
	if second.Category != nil || second.ExpiryDate != nil || !second.SellingPrice.Equal(decimal.RequireFromString("18.75")) {
		t.Fatalf("unexpected second row %+v", second)
	}
	if third := rows[2]; third.ExpiryDate == nil || third.ExpiryDate.Month() != time.December {
		t.Fatalf("unexpected third row %+v", third)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing price column", "name,cost\nA,1\n", 0},
		{"bad price", "name,cost,price\nA,1,ten\n", 2},
		{"bad stock", "name,cost,price,stock\nA,1,2,3\nB,1,2,many\n", 3},
		{"bad date", "name,cost,price,expiry\nA,1,2,soon\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("expected an error")
			}
			var rowErr *RowError
			if tt.line == 0 {
				if errors.As(err, &rowErr) {
					t.Fatalf("expected a header error, got %v", err)
				}
				return
			}
			if !errors.As(err, &rowErr) || rowErr.Line != tt.line {
				t.Fatalf("expected error on line %d, got %v", tt.line, err)
			}
		})
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"name", "buying_price", "selling_price", "stock_quantity"}); err != nil {
		t.Fatalf("header: %v", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &[]interface{}{"Cetirizine", "3", "5", "40"}); err != nil {
		t.Fatalf("row: %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Cetirizine" || rows[0].StockQuantity != 40 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}
