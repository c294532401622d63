package retrieval

import (
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// normalizeText 将全角空格折叠为普通空格并压缩连续空白。
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "　", " ")
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// splitSentences 按句末标点（. ! ?）后跟空白切分句子，标点保留在句尾。
func splitSentences(s string) []string {
	runes := []rune(s)
	out := make([]string, 0, 8)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// 标点后是空白才算句界，避免切开 "3.5" 这类内嵌标点
			if i+1 < len(runes) && isSpaceRune(runes[i+1]) {
				sent := strings.TrimSpace(string(runes[start : i+1]))
				if sent != "" {
					out = append(out, sent)
				}
				for i+1 < len(runes) && isSpaceRune(runes[i+1]) {
					i++
				}
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		sent := strings.TrimSpace(string(runes[start:]))
		if sent != "" {
			out = append(out, sent)
		}
	}
	return out
}

func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '　':
		return true
	}
	return false
}

// ChunkSentences 按句子边界贪心打包文本分片。
// 每个分片不超过 maxChars 个字符（按 rune 计），除非单句本身超长。
// 相邻分片之间带重叠：第 i 片（i>0）前缀拼接上一个“已重叠”分片的末尾
// overlapChars 个字符后再做空白归一化，因此重叠是向前复合的。
func ChunkSentences(text string, maxChars, overlapChars int) []string {
	cleaned := normalizeText(text)
	if cleaned == "" {
		return nil
	}
	if maxChars <= 0 {
		return []string{cleaned}
	}
	if overlapChars < 0 {
		overlapChars = 0
	}

	sentences := splitSentences(cleaned)
	if len(sentences) == 0 {
		return nil
	}

	// 先按句贪心打包
	packed := make([]string, 0, len(sentences))
	var buf strings.Builder
	for _, sent := range sentences {
		if buf.Len() == 0 {
			buf.WriteString(sent)
			continue
		}
		if runeLen(buf.String())+1+runeLen(sent) <= maxChars {
			buf.WriteByte(' ')
			buf.WriteString(sent)
		} else {
			packed = append(packed, buf.String())
			buf.Reset()
			buf.WriteString(sent)
		}
	}
	if buf.Len() > 0 {
		packed = append(packed, buf.String())
	}

	if overlapChars == 0 || len(packed) <= 1 {
		return packed
	}

	// 再做向前复合的重叠
	out := make([]string, 0, len(packed))
	out = append(out, packed[0])
	for i := 1; i < len(packed); i++ {
		prev := []rune(out[i-1])
		tailStart := len(prev) - overlapChars
		if tailStart < 0 {
			tailStart = 0
		}
		out = append(out, normalizeText(string(prev[tailStart:])+" "+packed[i]))
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
