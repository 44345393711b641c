package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/types"
)

// ResponseRepo is the scheduler's window into answer history. The incorrect
// set drives review-pool eligibility.
type ResponseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, responses []*types.QuestionResponse) ([]*types.QuestionResponse, error)
	GetByUserAndQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) ([]*types.QuestionResponse, error)
	// GetIncorrectQuestionIDs returns the distinct question ids the user has
	// ever answered incorrectly, ordered by first miss.
	GetIncorrectQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type responseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	return &responseRepo{db: db, log: baseLog.With("repo", "ResponseRepo")}
}

func (rr *responseRepo) Create(ctx context.Context, tx *gorm.DB, responses []*types.QuestionResponse) ([]*types.QuestionResponse, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(responses) == 0 {
		return []*types.QuestionResponse{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (rr *responseRepo) GetByUserAndQuestion(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) ([]*types.QuestionResponse, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.QuestionResponse
	if userID == uuid.Nil || questionID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *responseRepo) GetIncorrectQuestionIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var ids []uuid.UUID
	if userID == uuid.Nil {
		return ids, nil
	}
	if err := transaction.WithContext(ctx).
		Model(&types.QuestionResponse{}).
		Where("user_id = ? AND correct = ?", userID, false).
		Group("question_id").
		Order("MIN(created_at)").
		Pluck("question_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
