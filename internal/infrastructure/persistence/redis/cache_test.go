package redis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAskCacheKeyShape(t *testing.T) {
	key := AskCacheKey("what is a funny drama", "search", 6, 0)

	parts := strings.Split(key, ":")
	assert.Len(t, parts, 5)
	assert.Equal(t, "ask", parts[0])
	assert.Equal(t, "search", parts[1])
	assert.Equal(t, "6", parts[2])
	assert.Equal(t, "0", parts[3])
	// 128 位哈希的十六进制
	assert.Len(t, parts[4], 32)
}

func TestAskCacheKeyDeterministic(t *testing.T) {
	a := AskCacheKey("question", "qa", 5, 42)
	b := AskCacheKey("question", "qa", 5, 42)
	assert.Equal(t, a, b)
}

func TestAskCacheKeyVariesByInputs(t *testing.T) {
	base := AskCacheKey("question", "search", 6, 0)

	assert.NotEqual(t, base, AskCacheKey("another question", "search", 6, 0))
	assert.NotEqual(t, base, AskCacheKey("question", "recommend", 6, 0))
	assert.NotEqual(t, base, AskCacheKey("question", "search", 10, 0))
	assert.NotEqual(t, base, AskCacheKey("question", "search", 6, 7))
}

func TestBuildRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:1.2.3.4:/rag/ask", BuildRateLimitKey("1.2.3.4", "/rag/ask"))
}
