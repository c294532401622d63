package retrieval

import "errors"

var (
	// ErrIndexUnavailable 表示索引产物缺失或损坏（manifest 未加载），检索能力不可用。
	ErrIndexUnavailable = errors.New("retrieval index is unavailable")

	// ErrBuildLocked 表示索引目录已被另一个建库进程持有。
	ErrBuildLocked = errors.New("index build already in progress")

	// ErrEmptyCatalog 表示目录来源没有任何可用剧目。
	ErrEmptyCatalog = errors.New("catalog has no usable rows")
)
