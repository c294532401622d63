// Package catalog 提供文件型剧目目录来源
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"short-drama-ai-api/internal/application/retrieval"
)

// 列名候选，按优先级匹配（兼容 camelCase 与 snake_case 导出）
var (
	idColumns       = []string{"id", "dramaid", "drama_id"}
	titleColumns    = []string{"title", "name"}
	descColumns     = []string{"description", "desc", "synopsis", "overview"}
	categoryColumns = []string{"category", "tags", "genre"}
)

// CSVSource CSV 目录来源，实现应用层 CatalogSource port。
type CSVSource struct {
	path string
}

// NewCSVSource 创建 CSV 目录来源
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

var _ retrieval.CatalogSource = (*CSVSource)(nil)

// ListAll 读取整个 CSV 并映射为目录行。
// 表头列名灵活匹配；至少要有 id 与 title 两列。无法解析的 id 记为 0，
// 由建库侧统一剔除并计数。
func (s *CSVSource) ListAll(ctx context.Context) ([]retrieval.CatalogRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog csv is empty: %s", s.path)
	}

	header := records[0]
	idIdx := findColumn(header, idColumns)
	titleIdx := findColumn(header, titleColumns)
	descIdx := findColumn(header, descColumns)
	catIdx := findColumn(header, categoryColumns)

	if idIdx < 0 || titleIdx < 0 {
		return nil, fmt.Errorf("catalog csv needs at least id and title columns, have: %v", header)
	}

	rows := make([]retrieval.CatalogRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		id, _ := strconv.ParseInt(strings.TrimSpace(cell(rec, idIdx)), 10, 64)
		rows = append(rows, retrieval.CatalogRow{
			ID:          id,
			Title:       cell(rec, titleIdx),
			Description: cell(rec, descIdx),
			Category:    cell(rec, catIdx),
		})
	}
	return rows, nil
}

// findColumn 按候选列表做大小写无关匹配，返回首个命中的列下标。
func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), cand) {
				return i
			}
		}
	}
	return -1
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
