package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scalpelprep/scalpelprep-backend/internal/apierr"
	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/repos"
	"github.com/scalpelprep/scalpelprep-backend/internal/types"
)

// ResponseService records answer events. Recording correctness here is a
// separate call from grading a review; the review scheduler only ever reads
// this table.
type ResponseService interface {
	RecordResponse(ctx context.Context, userID, questionID uuid.UUID, choice, mode string) (*types.QuestionResponse, error)
}

type responseService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	questionRepo repos.QuestionRepo
	responseRepo repos.ResponseRepo
}

func NewResponseService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	questionRepo repos.QuestionRepo,
	responseRepo repos.ResponseRepo,
) ResponseService {
	return &responseService{
		db:           db,
		log:          log.With("service", "ResponseService"),
		userRepo:     userRepo,
		questionRepo: questionRepo,
		responseRepo: responseRepo,
	}
}

func (s *responseService) RecordResponse(ctx context.Context, userID, questionID uuid.UUID, choice, mode string) (*types.QuestionResponse, error) {
	if userID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("user id is required"))
	}
	if questionID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("question id is required"))
	}
	if choice == "" {
		return nil, apierr.InvalidArgument(fmt.Errorf("choice is required"))
	}
	if mode == "" {
		mode = types.ResponseModeStudy
	}
	if mode != types.ResponseModeStudy && mode != types.ResponseModeTest {
		return nil, apierr.InvalidArgument(fmt.Errorf("mode %q must be %q or %q", mode, types.ResponseModeStudy, types.ResponseModeTest))
	}

	exists, err := s.userRepo.Exists(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("check user: %w", err))
	}
	if !exists {
		return nil, apierr.NotFound(fmt.Errorf("user %s not found", userID))
	}
	questions, err := s.questionRepo.GetByIDs(ctx, nil, []uuid.UUID{questionID})
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("load question: %w", err))
	}
	if len(questions) == 0 {
		return nil, apierr.NotFound(fmt.Errorf("question %s not found", questionID))
	}
	question := questions[0]

	response := &types.QuestionResponse{
		ID:         uuid.New(),
		UserID:     userID,
		QuestionID: questionID,
		Mode:       mode,
		Choice:     choice,
		Correct:    choice == question.CorrectChoice,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.responseRepo.Create(ctx, nil, []*types.QuestionResponse{response}); err != nil {
		return nil, apierr.Storage(fmt.Errorf("persist response: %w", err))
	}
	return response, nil
}
