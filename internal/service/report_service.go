package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/difficulty"
)

// SessionReport 导出文件内容
type SessionReport struct {
	SessionID       string                 `json:"sessionId"`
	UserID          uint                   `json:"userId"`
	Role            string                 `json:"role"`
	Topic           string                 `json:"topic,omitempty"`
	StartDifficulty float64                `json:"startDifficulty"`
	EndDifficulty   float64                `json:"endDifficulty"`
	StartedAt       time.Time              `json:"startedAt"`
	CompletedAt     *time.Time             `json:"completedAt"`
	Questions       int                    `json:"questions"`
	SuccessRate     float64                `json:"successRate"`
	AvgTimeRatio    float64                `json:"avgTimeRatio"`
	ConfidenceTrend difficulty.Trend       `json:"confidenceTrend"`
	Results         []model.QuestionResult `json:"results"`
	GeneratedAt     time.Time              `json:"generatedAt"`
}

type ExportResult struct {
	URL    string         `json:"url"`
	Object string         `json:"object"`
	Report *SessionReport `json:"report"`
}

type ReportService struct {
	sessions *SessionService
	storage  *StorageService
	now      func() time.Time
}

func NewReportService(sessions *SessionService, storage *StorageService) *ReportService {
	return &ReportService{sessions: sessions, storage: storage, now: time.Now}
}

// BuildReport 只能为已完成的会话生成报告
func (s *ReportService) BuildReport(userID uint, sessionID string) (*SessionReport, error) {
	session, err := s.sessions.Get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionCompleted {
		return nil, util.ErrSessionNotCompleted
	}

	history := toHistory(session.Results)
	return &SessionReport{
		SessionID:       session.ID,
		UserID:          session.UserID,
		Role:            session.Role,
		Topic:           session.Topic,
		StartDifficulty: session.StartDifficulty,
		EndDifficulty:   session.EndDifficulty,
		StartedAt:       session.CreatedAt,
		CompletedAt:     session.CompletedAt,
		Questions:       len(session.Results),
		SuccessRate:     difficulty.SuccessRate(history),
		AvgTimeRatio:    difficulty.AvgTimeRatio(history),
		ConfidenceTrend: difficulty.ConfidenceTrend(history),
		Results:         session.Results,
		GeneratedAt:     s.now(),
	}, nil
}

func (s *ReportService) ExportSession(ctx context.Context, userID uint, sessionID string) (*ExportResult, error) {
	report, err := s.BuildReport(userID, sessionID)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}

	object := fmt.Sprintf("reports/%d/%s.json", userID, sessionID)
	url, err := s.storage.Upload(ctx, object, bytes.NewReader(body), int64(len(body)), util.MimeJSON)
	if err != nil {
		return nil, fmt.Errorf("upload report: %w", err)
	}

	return &ExportResult{URL: url, Object: object, Report: report}, nil
}
