// Package extract turns the structuring service's delimited text into
// typed invoice line items, and discovers invoice images on disk.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShashankBhutiya/TallyAI/internal/model"
	"github.com/ShashankBhutiya/TallyAI/internal/numfmt"
)

// Row layout produced by the structuring service.
const (
	numFields   = 7
	colName     = 0
	colQuantity = 1
	colUnit     = 2
	colNetPrice = 3
	colNetWorth = 4
	colVAT      = 5
	colGross    = 6
)

// ParseTable splits a delimited blob into rows (newline) and columns (pipe).
// This is purely syntactic: no trimming, validation or type conversion.
// An empty or whitespace-only blob yields a nil table.
func ParseTable(blob string) [][]string {
	if strings.TrimSpace(blob) == "" {
		return nil
	}

	lines := strings.Split(blob, "\n")
	table := make([][]string, 0, len(lines))
	for _, line := range lines {
		table = append(table, strings.Split(line, "|"))
	}
	return table
}

// ItemsFromTable converts raw rows into line items, preserving order.
// A row is kept only if it has at least 7 fields and a non-empty quantity
// that parses to a non-zero integer; everything else is counted in skipped.
func ItemsFromTable(table [][]string) (items []model.LineItem, skipped int) {
	for _, row := range table {
		item, ok := itemFromRow(row)
		if !ok {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped
}

func itemFromRow(row []string) (model.LineItem, bool) {
	if len(row) < numFields || row[colQuantity] == "" {
		return model.LineItem{}, false
	}

	qty := numfmt.ParseInt(row[colQuantity])
	if qty == 0 {
		return model.LineItem{}, false
	}

	return model.LineItem{
		Name:     row[colName],
		Quantity: qty,
		Unit:     row[colUnit],
		NetPrice: numfmt.Parse(row[colNetPrice]),
		NetWorth: numfmt.Parse(row[colNetWorth]),
		VAT:      numfmt.Parse(row[colVAT]),
		Gross:    numfmt.Parse(row[colGross]),
	}, true
}

// imageExts is the allow-list of invoice image extensions.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".gif":  true,
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns paths of image files directly inside dir, in
// directory order.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
