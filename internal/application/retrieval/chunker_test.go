package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("a　b\t\n c "))
	assert.Equal(t, "", normalizeText("  \t\n　"))
	assert.Equal(t, "hello world", normalizeText("hello   world"))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "basic punctuation",
			in:   "Hello world. How are you? Fine!",
			want: []string{"Hello world.", "How are you?", "Fine!"},
		},
		{
			name: "embedded dot is not a boundary",
			in:   "Version 3.5 is out. Great.",
			want: []string{"Version 3.5 is out.", "Great."},
		},
		{
			name: "trailing text without punctuation",
			in:   "First. and then some more",
			want: []string{"First.", "and then some more"},
		},
		{
			name: "repeated punctuation",
			in:   "What?! Really?! Yes.",
			want: []string{"What?!", "Really?!", "Yes."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.in))
		})
	}
}

func TestChunkSentencesEmpty(t *testing.T) {
	assert.Nil(t, ChunkSentences("", 100, 20))
	assert.Nil(t, ChunkSentences("   　  ", 100, 20))
}

func TestChunkSentencesNoLimit(t *testing.T) {
	got := ChunkSentences("One. Two. Three.", 0, 10)
	assert.Equal(t, []string{"One. Two. Three."}, got)
}

func TestChunkSentencesPacking(t *testing.T) {
	got := ChunkSentences("aaaa. bbbb. cccc.", 11, 0)
	assert.Equal(t, []string{"aaaa. bbbb.", "cccc."}, got)
}

func TestChunkSentencesOverlap(t *testing.T) {
	got := ChunkSentences("aaaa. bbbb. cccc.", 11, 5)
	assert.Equal(t, []string{"aaaa. bbbb.", "bbbb. cccc."}, got)
}

func TestChunkSentencesOverlapCompounds(t *testing.T) {
	// 重叠取的是上一个“已重叠”分片的末尾，而非原始分片
	got := ChunkSentences("aaaa. bbbb. cccc. dddd. eeee.", 11, 5)
	assert.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		prev := []rune(got[i-1])
		tail := strings.TrimSpace(string(prev[len(prev)-5:]))
		assert.True(t, strings.HasPrefix(got[i], tail),
			"chunk %d should start with tail of chunk %d", i, i-1)
	}
}

func TestChunkSentencesLongSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 50) + "."
	got := ChunkSentences(long+" Short.", 20, 0)
	assert.Equal(t, []string{long, "Short."}, got)
}

func TestChunkSentencesRespectsRuneLength(t *testing.T) {
	// 多字节字符按 rune 计数
	got := ChunkSentences("你好世界你好. 你好世界你好.", 15, 0)
	assert.Equal(t, []string{"你好世界你好. 你好世界你好."}, got)
}
