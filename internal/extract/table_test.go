package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable_Empty(t *testing.T) {
	assert.Nil(t, ParseTable(""))
	assert.Nil(t, ParseTable("   \n\t  "))
}

func TestParseTable_Splits(t *testing.T) {
	table := ParseTable("a|b|c\nd|e")
	require.Len(t, table, 2)
	assert.Equal(t, []string{"a", "b", "c"}, table[0])
	assert.Equal(t, []string{"d", "e"}, table[1])
}

func TestItemsFromTable(t *testing.T) {
	table := [][]string{
		{"Widget", "0", "pcs", "10", "10", "0", "10"},  // zero quantity
		{"Widget", "3", "pcs", "10"},                   // too few fields
		{"Widget", "3", "pcs", "10", "30", "1", "31"},  // kept
		{"Gadget", "", "pcs", "10", "10", "0", "10"},   // empty quantity
		{"Gizmo", "2", "box", "5.50", "11", "0", "11"}, // kept
	}

	items, skipped := ItemsFromTable(table)
	require.Len(t, items, 2)
	assert.Equal(t, 3, skipped)

	assert.Equal(t, "Widget", items[0].Name)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "pcs", items[0].Unit)
	assert.True(t, items[0].NetPrice.Equal(decimal.RequireFromString("10")))
	assert.True(t, items[0].NetWorth.Equal(decimal.RequireFromString("30")))
	assert.True(t, items[0].VAT.Equal(decimal.RequireFromString("1")))
	assert.True(t, items[0].Gross.Equal(decimal.RequireFromString("31")))

	// Row order is preserved.
	assert.Equal(t, "Gizmo", items[1].Name)
}

func TestItemsFromTable_UnparseableMoneyIsZero(t *testing.T) {
	items, skipped := ItemsFromTable([][]string{
		{"Widget", "1", "pcs", "??", "30", "1", "31"},
	})
	require.Len(t, items, 1)
	assert.Zero(t, skipped)
	assert.True(t, items[0].NetPrice.IsZero())
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("scan.jpg"))
	assert.True(t, IsImageFile("SCAN.JPEG"))
	assert.True(t, IsImageFile("a.tiff"))
	assert.False(t, IsImageFile("notes.txt"))
	assert.False(t, IsImageFile("archive.pdf"))
	assert.False(t, IsImageFile("noext"))
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.PNG", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	files, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
	}, files)
}

func TestListImages_MissingDir(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
