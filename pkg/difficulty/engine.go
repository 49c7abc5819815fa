// Package difficulty 根据最近的答题表现推荐下一次练习的难度
package difficulty

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	MinDifficulty     = 1.0
	MaxDifficulty     = 10.0
	DefaultDifficulty = 5.0

	// WindowSize 参与计算的最近答题数
	WindowSize = 10
	// MinResults 少于该数量时不调整
	MinResults = 3

	targetSuccessRate = 0.75
	tolerance         = 0.05
	maxSwing          = 0.5
)

// ReasonInsufficientData 数据不足时返回的原因
const ReasonInsufficientData = "insufficient data"

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// QuestionResult 一次答题的结果
type QuestionResult struct {
	Difficulty       float64   `json:"difficulty"`
	WasCorrect       bool      `json:"wasCorrect"`
	TimeSpentSeconds float64   `json:"timeSpentSeconds"`
	ConfidenceScore  float64   `json:"confidenceScore"`
	Timestamp        time.Time `json:"timestamp"`
}

// Result 难度计算结果，Reason 仅用于排查
type Result struct {
	NewDifficulty    float64 `json:"newDifficulty"`
	Reason           string  `json:"reason"`
	Adjustment       float64 `json:"adjustment"`
	SuccessRate      float64 `json:"successRate"`
	AvgTimeRatio     float64 `json:"avgTimeRatio"`
	ConfidenceTrend  Trend   `json:"confidenceTrend"`
	InsufficientData bool    `json:"insufficientData"`
}

// 各难度等级的预期作答时间（秒）
var expectedSeconds = [...]float64{30, 45, 60, 90, 120, 150, 180, 240, 300, 360}

// ExpectedTimeForDifficulty 返回某难度下的预期作答秒数，难度取整后截断到 1-10
func ExpectedTimeForDifficulty(difficulty float64) float64 {
	level := int(math.Round(Clamp(difficulty)))
	return expectedSeconds[level-1]
}

// Clamp 将难度限制在 [1, 10]
func Clamp(d float64) float64 {
	if math.IsNaN(d) {
		return DefaultDifficulty
	}
	return math.Max(MinDifficulty, math.Min(MaxDifficulty, d))
}

// RoundHalf 四舍五入到最近的 0.5
func RoundHalf(d float64) float64 {
	return math.Round(d*2) / 2
}

// Window 返回按时间顺序排列的历史中最近的 WindowSize 条
func Window(history []QuestionResult) []QuestionResult {
	if len(history) <= WindowSize {
		return history
	}
	return history[len(history)-WindowSize:]
}

// CalculateNextDifficulty history 按时间升序，最后一条为最新
func CalculateNextDifficulty(history []QuestionResult, currentDifficulty float64) Result {
	window := Window(history)
	if len(window) < MinResults {
		return Result{
			NewDifficulty:    currentDifficulty,
			Reason:           ReasonInsufficientData,
			ConfidenceTrend:  TrendStable,
			InsufficientData: true,
		}
	}

	successRate := SuccessRate(window)
	timeRatio := AvgTimeRatio(window)
	trend := ConfidenceTrend(window)

	var adjustment float64
	var reasons []string

	switch {
	case successRate > targetSuccessRate+tolerance:
		adjustment += 0.3
		reasons = append(reasons, fmt.Sprintf("success rate %.2f above target", successRate))
		if successRate >= 0.9 {
			adjustment += 0.2
			reasons = append(reasons, "very high success rate")
		}
	case successRate < targetSuccessRate-tolerance:
		adjustment -= 0.3
		reasons = append(reasons, fmt.Sprintf("success rate %.2f below target", successRate))
		if successRate < 0.5 {
			adjustment -= 0.2
			reasons = append(reasons, "very low success rate")
		}
	}

	if timeRatio < 0.7 {
		adjustment += 0.1
		reasons = append(reasons, fmt.Sprintf("answering fast (time ratio %.2f)", timeRatio))
	} else if timeRatio > 1.3 {
		adjustment -= 0.1
		reasons = append(reasons, fmt.Sprintf("answering slow (time ratio %.2f)", timeRatio))
	}

	if trend == TrendImproving && successRate > 0.7 {
		adjustment += 0.1
		reasons = append(reasons, "confidence improving")
	} else if trend == TrendDeclining && successRate < 0.7 {
		adjustment -= 0.1
		reasons = append(reasons, "confidence declining")
	}

	adjustment = math.Max(-maxSwing, math.Min(maxSwing, adjustment))

	reason := "within target range"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	return Result{
		NewDifficulty:   RoundHalf(Clamp(currentDifficulty + adjustment)),
		Reason:          reason,
		Adjustment:      adjustment,
		SuccessRate:     successRate,
		AvgTimeRatio:    timeRatio,
		ConfidenceTrend: trend,
	}
}

// SuccessRate 答对比例
func SuccessRate(results []QuestionResult) float64 {
	if len(results) == 0 {
		return 0
	}
	correct := 0
	for _, r := range results {
		if r.WasCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(results))
}

// AvgTimeRatio 实际用时与预期用时之比的平均值
func AvgTimeRatio(results []QuestionResult) float64 {
	if len(results) == 0 {
		return 1
	}
	var sum float64
	for _, r := range results {
		sum += math.Max(0, r.TimeSpentSeconds) / ExpectedTimeForDifficulty(r.Difficulty)
	}
	return sum / float64(len(results))
}

// ConfidenceTrend 比较前半段与后半段的平均置信度
func ConfidenceTrend(results []QuestionResult) Trend {
	if len(results) < 2 {
		return TrendStable
	}
	half := len(results) / 2
	diff := meanConfidence(results[half:]) - meanConfidence(results[:half])
	switch {
	case diff > 0.1:
		return TrendImproving
	case diff < -0.1:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func meanConfidence(results []QuestionResult) float64 {
	var sum float64
	for _, r := range results {
		sum += r.ConfidenceScore
	}
	return sum / float64(len(results))
}
