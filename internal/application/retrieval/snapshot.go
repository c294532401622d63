package retrieval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	manifestFile  = "manifest.json"
	chunkMetaFile = "chunk_meta.jsonl"
	dramaMetaFile = "drama_meta.jsonl"
)

// Snapshot 一次建库产物的内存视图：manifest 与按行号对齐的元数据。
// 行号即向量集合里的 row_id，二者的对齐是检索正确性的前提。
type Snapshot struct {
	Manifest Manifest
	Chunks   []ChunkRecord
	Dramas   []DramaRecord
}

// LoadSnapshot 从索引目录加载 manifest 与元数据文件。
// 任何缺失或损坏都返回错误；调用方据此将检索置为不可用。
func LoadSnapshot(dir string) (*Snapshot, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.ChunkCollection == "" || m.DramaCollection == "" {
		return nil, fmt.Errorf("manifest missing collection names")
	}

	chunks, err := readJSONLines[ChunkRecord](filepath.Join(dir, chunkMetaFile))
	if err != nil {
		return nil, fmt.Errorf("read chunk metadata: %w", err)
	}
	dramas, err := readJSONLines[DramaRecord](filepath.Join(dir, dramaMetaFile))
	if err != nil {
		return nil, fmt.Errorf("read drama metadata: %w", err)
	}
	if m.Chunks > 0 && len(chunks) != m.Chunks {
		return nil, fmt.Errorf("chunk metadata rows %d do not match manifest %d", len(chunks), m.Chunks)
	}

	return &Snapshot{Manifest: m, Chunks: chunks, Dramas: dramas}, nil
}

func readJSONLines[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
