package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceFlexibleHeaders(t *testing.T) {
	path := writeCSV(t, "DramaID,Name,Synopsis,Genre\n"+
		"1,Alpha,A funny office romance.,Comedy\n"+
		"2,Beta,A detective story.,Mystery\n")

	rows, err := NewCSVSource(path).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, "Alpha", rows[0].Title)
	assert.Equal(t, "A funny office romance.", rows[0].Description)
	assert.Equal(t, "Comedy", rows[0].Category)
}

func TestCSVSourceUnparsableIDBecomesZero(t *testing.T) {
	path := writeCSV(t, "id,title\nabc,Broken\n7,Fine\n")

	rows, err := NewCSVSource(path).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// 无法解析的 id 记为 0，由建库侧剔除
	assert.Equal(t, int64(0), rows[0].ID)
	assert.Equal(t, int64(7), rows[1].ID)
}

func TestCSVSourceMissingRequiredColumns(t *testing.T) {
	path := writeCSV(t, "description,category\nfoo,bar\n")

	_, err := NewCSVSource(path).ListAll(context.Background())
	assert.Error(t, err)
}

func TestCSVSourceEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	_, err := NewCSVSource(path).ListAll(context.Background())
	assert.Error(t, err)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource("/nonexistent/catalog.csv").ListAll(context.Background())
	assert.Error(t, err)
}

func TestCSVSourceShortRecords(t *testing.T) {
	path := writeCSV(t, "id,title,description\n5,OnlyTitle\n")

	rows, err := NewCSVSource(path).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "OnlyTitle", rows[0].Title)
	assert.Equal(t, "", rows[0].Description)
}
