package types

import (
	"time"

	"github.com/google/uuid"
)

// ReviewState is the per-(user, question) spaced-repetition row, created
// lazily on the first graded review. NextReviewAt is always derived from
// (IntervalDays, UpdatedAt) at write time, never set independently.
type ReviewState struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_review_state_user_question,unique,priority:1" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index:idx_review_state_user_question,unique,priority:2" json:"question_id"`
	Question   *Question `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	// Denormalized locators copied from the question at creation, for
	// section-level reporting. Not authoritative.
	SectionID       uuid.UUID `gorm:"type:uuid;index" json:"section_id"`
	SubsectionID    uuid.UUID `gorm:"type:uuid;index" json:"subsection_id"`
	EaseFactor      float64   `gorm:"not null;default:2.5" json:"ease_factor"`
	IntervalDays    int       `gorm:"not null;default:0" json:"interval_days"`
	RepetitionCount int       `gorm:"not null;default:0" json:"repetition_count"`
	NextReviewAt    time.Time `gorm:"not null;index" json:"next_review_at"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (ReviewState) TableName() string { return "review_state" }
