package retrieval

// ExtractTags 为每篇文档提取 TF-IDF 标签。
// 输出与输入按位置对齐；第 i 个元素是第 i 篇文档的标签列表，重要性降序。
// 权重全为零的文档得到空列表而非错误。
func ExtractTags(ranker TermRanker, texts []string, topK int) ([][]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ranker.Fit(texts); err != nil {
		return nil, err
	}

	out := make([][]string, len(texts))
	for i := range texts {
		terms := ranker.TermsFor(i)

		// 协作者返回权重升序；取末尾 topK 即权重最高的词项
		start := len(terms) - topK
		if topK <= 0 || start < 0 {
			start = 0
		}
		top := terms[start:]

		tags := make([]string, 0, len(top))
		for _, t := range top {
			if t.Weight <= 0 {
				continue
			}
			if runeLen(t.Term) <= 2 {
				continue
			}
			tags = append(tags, t.Term)
		}
		// 反转为重要性降序
		for l, r := 0, len(tags)-1; l < r; l, r = l+1, r-1 {
			tags[l], tags[r] = tags[r], tags[l]
		}
		out[i] = tags
	}
	return out, nil
}
