package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scalpelprep/scalpelprep-backend/internal/apierr"
	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/repos"
	"github.com/scalpelprep/scalpelprep-backend/internal/types"
)

type QuestionService interface {
	GetQuestion(ctx context.Context, questionID uuid.UUID) (*types.Question, error)
	ListSectionQuestions(ctx context.Context, sectionID uuid.UUID) ([]*types.Question, error)
}

type questionService struct {
	db           *gorm.DB
	log          *logger.Logger
	questionRepo repos.QuestionRepo
}

func NewQuestionService(db *gorm.DB, log *logger.Logger, questionRepo repos.QuestionRepo) QuestionService {
	return &questionService{
		db:           db,
		log:          log.With("service", "QuestionService"),
		questionRepo: questionRepo,
	}
}

func (s *questionService) GetQuestion(ctx context.Context, questionID uuid.UUID) (*types.Question, error) {
	if questionID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("question id is required"))
	}
	questions, err := s.questionRepo.GetByIDs(ctx, nil, []uuid.UUID{questionID})
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("load question: %w", err))
	}
	if len(questions) == 0 {
		return nil, apierr.NotFound(fmt.Errorf("question %s not found", questionID))
	}
	return questions[0], nil
}

func (s *questionService) ListSectionQuestions(ctx context.Context, sectionID uuid.UUID) ([]*types.Question, error) {
	if sectionID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("section id is required"))
	}
	questions, err := s.questionRepo.ListBySection(ctx, nil, sectionID)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("list section questions: %w", err))
	}
	return questions, nil
}
