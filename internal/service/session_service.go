package service

import (
	"context"
	"errors"
	"time"

	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"

	"gorm.io/gorm"
)

type SessionService struct {
	repo       *repository.SessionRepository
	difficulty *DifficultyService
	now        func() time.Time
}

func NewSessionService(repo *repository.SessionRepository, difficulty *DifficultyService) *SessionService {
	return &SessionService{repo: repo, difficulty: difficulty, now: time.Now}
}

type StartSessionRequest struct {
	Role  string `json:"role" binding:"required,max=100"`
	Topic string `json:"topic" binding:"max=100"`
}

func (s *SessionService) Start(userID uint, req StartSessionRequest) (*model.PracticeSession, error) {
	current, err := s.difficulty.Current(userID)
	if err != nil {
		return nil, err
	}

	session := &model.PracticeSession{
		UserID:          userID,
		Role:            req.Role,
		Topic:           req.Topic,
		StartDifficulty: current,
		Status:          model.SessionActive,
	}
	if err := s.repo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Get(userID uint, id string) (*model.PracticeSession, error) {
	session, err := s.repo.FindWithResults(userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	return session, err
}

func (s *SessionService) List(userID uint, page, pageSize int) ([]model.PracticeSession, int64, error) {
	return s.repo.ListByUser(userID, page, pageSize)
}

func (s *SessionService) findActive(userID uint, id string) (*model.PracticeSession, error) {
	session, err := s.repo.FindForUser(userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, util.ErrSessionCompleted
	}
	return session, nil
}

// RecordResult 在进行中的会话内记录答题结果
func (s *SessionService) RecordResult(ctx context.Context, userID uint, id string, in RecordResultInput) (*DifficultyUpdate, error) {
	if _, err := s.findActive(userID, id); err != nil {
		return nil, err
	}
	in.SessionID = id
	return s.difficulty.RecordResult(ctx, userID, in)
}

func (s *SessionService) Complete(userID uint, id string) (*model.PracticeSession, error) {
	session, err := s.findActive(userID, id)
	if err != nil {
		return nil, err
	}

	current, err := s.difficulty.Current(userID)
	if err != nil {
		return nil, err
	}

	completedAt := s.now()
	session.Status = model.SessionCompleted
	session.EndDifficulty = current
	session.CompletedAt = &completedAt
	if err := s.repo.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}
