// Package answer 将排序结果组装为面向用户的文本回答。
// 模板实现；刻意与排序核心解耦，检索质量不依赖于此。
package answer

import (
	"fmt"
	"strings"

	"short-drama-ai-api/internal/application/retrieval"
)

const maxTitlesInAnswer = 3

// Compose 生成一段简短的英文回答：空结果给出致歉语，否则列出前三个标题。
func Compose(question string, items []retrieval.RankedItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("Sorry, I couldn't find relevant dramas for: %q.", question)
	}

	titles := make([]string, 0, maxTitlesInAnswer)
	for _, it := range items {
		if it.Title == "" {
			continue
		}
		titles = append(titles, it.Title)
		if len(titles) == maxTitlesInAnswer {
			break
		}
	}
	titleStr := "some titles"
	if len(titles) > 0 {
		titleStr = strings.Join(titles, ", ")
	}

	return fmt.Sprintf(
		"Here are some dramas matching your request %q: %s. "+
			"I chose them based on semantic similarity to your query and their descriptions. "+
			"Tap a card to view details and start watching.",
		question, titleStr)
}
