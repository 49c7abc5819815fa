package service

import (
	"context"
	"strings"
	"time"

	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/difficulty"
	"interview_prep_backend/pkg/logger"

	"go.uber.org/zap"
)

// PromptService 每次 AI 调用前先占用配额，配额不足时不调用 AI
type PromptService struct {
	quota      *QuotaService
	difficulty *DifficultyService
	generator  Generator
	now        func() time.Time
}

func NewPromptService(quota *QuotaService, difficulty *DifficultyService, generator Generator) *PromptService {
	return &PromptService{quota: quota, difficulty: difficulty, generator: generator, now: time.Now}
}

type GenerateQuestionRequest struct {
	Role  string `json:"role" binding:"required,max=100"`
	Topic string `json:"topic" binding:"max=100"`
}

type GeneratedQuestion struct {
	Question   string       `json:"question"`
	Difficulty float64      `json:"difficulty"`
	Usage      *TrackResult `json:"usage"`
}

type GenerateFeedbackRequest struct {
	Question         string   `json:"question" binding:"required"`
	Answer           string   `json:"answer" binding:"required"`
	ExpectedKeywords []string `json:"expectedKeywords"`
}

type GeneratedFeedback struct {
	Feedback   string       `json:"feedback"`
	Confidence float64      `json:"confidence"`
	Usage      *TrackResult `json:"usage"`
}

func (s *PromptService) GenerateQuestion(ctx context.Context, userID uint, req GenerateQuestionRequest) (*GeneratedQuestion, error) {
	usage, err := s.quota.TrackPrompt(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	current, err := s.difficulty.Current(userID)
	if err != nil {
		return nil, err
	}

	text, err := s.generator.GenerateQuestion(ctx, QuestionPrompt{
		Role:       req.Role,
		Topic:      req.Topic,
		Difficulty: current,
	})
	if err != nil {
		// 配额已经占用，不回滚
		logger.Log.Error("Question generation failed", zap.Uint("userID", userID), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, util.ErrEmptyAIResponse
	}

	return &GeneratedQuestion{Question: text, Difficulty: current, Usage: usage}, nil
}

func (s *PromptService) GenerateFeedback(ctx context.Context, userID uint, req GenerateFeedbackRequest) (*GeneratedFeedback, error) {
	usage, err := s.quota.TrackPrompt(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	text, err := s.generator.GenerateFeedback(ctx, FeedbackPrompt{
		Question: req.Question,
		Answer:   req.Answer,
		Keywords: req.ExpectedKeywords,
	})
	if err != nil {
		logger.Log.Error("Feedback generation failed", zap.Uint("userID", userID), zap.Error(err))
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, util.ErrEmptyAIResponse
	}

	return &GeneratedFeedback{
		Feedback:   text,
		Confidence: difficulty.ScoreAnswerConfidence(req.Answer, req.ExpectedKeywords),
		Usage:      usage,
	}, nil
}
