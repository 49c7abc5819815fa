package service

import (
	"context"
	"math"
	"time"

	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/difficulty"
	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DifficultyService struct {
	results *repository.QuestionResultRepository
	states  *repository.DifficultyRepository
	now     func() time.Time
}

func NewDifficultyService(results *repository.QuestionResultRepository, states *repository.DifficultyRepository) *DifficultyService {
	return &DifficultyService{results: results, states: states, now: time.Now}
}

// RecordResultInput 未提供 Difficulty 时按用户当前难度记录；未提供 ConfidenceScore 时由回答文本估算
type RecordResultInput struct {
	SessionID        string   `json:"-"`
	Question         string   `json:"question"`
	AnswerText       string   `json:"answerText"`
	ExpectedKeywords []string `json:"expectedKeywords"`
	Difficulty       *float64 `json:"difficulty"`
	WasCorrect       bool     `json:"wasCorrect"`
	TimeSpentSeconds float64  `json:"timeSpentSeconds" binding:"gte=0"`
	ConfidenceScore  *float64 `json:"confidenceScore"`
}

type DifficultyUpdate struct {
	Result         *model.QuestionResult `json:"result"`
	Previous       float64               `json:"previousDifficulty"`
	NewDifficulty  float64               `json:"newDifficulty"`
	Reason         string                `json:"reason"`
	Recommendation difficulty.Result     `json:"details"`
}

// Current 新用户返回默认难度
func (s *DifficultyService) Current(userID uint) (float64, error) {
	state, err := s.states.Find(userID)
	if err != nil {
		return 0, err
	}
	if state == nil {
		return difficulty.DefaultDifficulty, nil
	}
	return state.CurrentDifficulty, nil
}

// State 用于展示，新用户返回默认状态（不落库）
func (s *DifficultyService) State(userID uint) (*model.DifficultyState, error) {
	state, err := s.states.Find(userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return &model.DifficultyState{UserID: userID, CurrentDifficulty: difficulty.DefaultDifficulty}, nil
	}
	return state, nil
}

// RecordResult 追加一条答题记录并根据最近的记录更新难度
func (s *DifficultyService) RecordResult(ctx context.Context, userID uint, in RecordResultInput) (*DifficultyUpdate, error) {
	current, err := s.Current(userID)
	if err != nil {
		return nil, err
	}

	questionDifficulty := current
	if in.Difficulty != nil {
		questionDifficulty = *in.Difficulty
		if questionDifficulty < difficulty.MinDifficulty || questionDifficulty > difficulty.MaxDifficulty {
			return nil, util.ErrInvalidDifficulty
		}
	}

	var confidence float64
	if in.ConfidenceScore != nil {
		confidence = math.Max(0, math.Min(1, *in.ConfidenceScore))
	} else {
		confidence = difficulty.ScoreAnswerConfidence(in.AnswerText, in.ExpectedKeywords)
	}

	record := &model.QuestionResult{
		UserID:           userID,
		SessionID:        in.SessionID,
		Question:         in.Question,
		AnswerText:       in.AnswerText,
		Difficulty:       questionDifficulty,
		WasCorrect:       in.WasCorrect,
		TimeSpentSeconds: math.Max(0, in.TimeSpentSeconds),
		ConfidenceScore:  confidence,
		CreatedAt:        s.now(),
	}

	// 答题记录与难度状态在同一事务内写入
	var rec difficulty.Result
	err = s.results.DB.Transaction(func(tx *gorm.DB) error {
		results := repository.NewQuestionResultRepository(tx)
		states := repository.NewDifficultyRepository(tx)

		if err := results.Create(record); err != nil {
			return err
		}
		recent, err := results.Recent(userID, difficulty.WindowSize)
		if err != nil {
			return err
		}

		rec = difficulty.CalculateNextDifficulty(toHistory(recent), current)
		return states.Save(&model.DifficultyState{
			UserID:            userID,
			CurrentDifficulty: rec.NewDifficulty,
			LastReason:        truncate(rec.Reason, 512),
		})
	})
	if err != nil {
		return nil, err
	}

	monitoring.DifficultyAdjustment.Observe(rec.Adjustment)
	logger.Log.Debug("Difficulty recalculated",
		zap.Uint("userID", userID),
		zap.Float64("from", current),
		zap.Float64("to", rec.NewDifficulty),
		zap.String("reason", rec.Reason))

	return &DifficultyUpdate{
		Result:         record,
		Previous:       current,
		NewDifficulty:  rec.NewDifficulty,
		Reason:         rec.Reason,
		Recommendation: rec,
	}, nil
}

func toHistory(results []model.QuestionResult) []difficulty.QuestionResult {
	history := make([]difficulty.QuestionResult, len(results))
	for i, r := range results {
		history[i] = difficulty.QuestionResult{
			Difficulty:       r.Difficulty,
			WasCorrect:       r.WasCorrect,
			TimeSpentSeconds: r.TimeSpentSeconds,
			ConfidenceScore:  r.ConfidenceScore,
			Timestamp:        r.CreatedAt,
		}
	}
	return history
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
