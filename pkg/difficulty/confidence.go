package difficulty

import (
	"math"
	"strings"
)

const (
	keywordWeight   = 0.4
	lengthWeight    = 0.3
	structureWeight = 0.3

	minIdealWords = 50
	maxIdealWords = 400
)

var (
	starMarkers     = []string{"situation", "task", "action", "result"}
	sequenceMarkers = []string{"first", "then", "next", "finally"}
)

// ScoreAnswerConfidence 基于关键词覆盖、篇幅和结构给回答打分，范围 [0,1]。
// 启发式评分，权重未经数据校准。
func ScoreAnswerConfidence(answerText string, expectedKeywords []string) float64 {
	text := strings.ToLower(answerText)
	words := strings.Fields(text)

	score := keywordWeight*keywordCoverage(text, expectedKeywords) +
		lengthWeight*lengthScore(len(words)) +
		structureWeight*structureScore(words)

	return math.Max(0, math.Min(1, score))
}

func keywordCoverage(text string, keywords []string) float64 {
	total := 0
	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		total++
		if strings.Contains(text, kw) {
			hits++
		}
	}
	if total == 0 {
		return 0.5
	}
	return float64(hits) / float64(total)
}

func lengthScore(wordCount int) float64 {
	switch {
	case wordCount == 0:
		return 0
	case wordCount < minIdealWords:
		return float64(wordCount) / minIdealWords
	case wordCount <= maxIdealWords:
		return 1
	default:
		over := float64(wordCount-maxIdealWords) / maxIdealWords
		return math.Max(0.5, 1-over)
	}
}

func structureScore(words []string) float64 {
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[strings.Trim(w, ".,;:!?()\"'")] = true
	}

	var score float64
	for _, m := range starMarkers {
		if seen[m] {
			score += 0.15
		}
	}
	for _, m := range sequenceMarkers {
		if seen[m] {
			score += 0.1
		}
	}
	return math.Min(1, score)
}
