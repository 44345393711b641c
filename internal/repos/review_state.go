package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/types"
)

type ReviewStateRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) (*types.ReviewState, error)
	GetAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ReviewState, error)
	// Upsert writes the full row keyed by (user_id, question_id) in a single
	// statement, so a grade is atomic per state row.
	Upsert(ctx context.Context, tx *gorm.DB, state *types.ReviewState) error
}

type reviewStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewStateRepo(db *gorm.DB, baseLog *logger.Logger) ReviewStateRepo {
	return &reviewStateRepo{db: db, log: baseLog.With("repo", "ReviewStateRepo")}
}

func (rs *reviewStateRepo) Get(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) (*types.ReviewState, error) {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}
	if userID == uuid.Nil || questionID == uuid.Nil {
		return nil, nil
	}
	var row types.ReviewState
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (rs *reviewStateRepo) GetAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ReviewState, error) {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}
	var results []*types.ReviewState
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rs *reviewStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *types.ReviewState) error {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}
	if state == nil || state.UserID == uuid.Nil || state.QuestionID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"section_id", "subsection_id", "ease_factor", "interval_days",
				"repetition_count", "next_review_at", "updated_at",
			}),
		}).
		Create(state).Error
}
