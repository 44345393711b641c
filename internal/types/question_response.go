package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ResponseModeStudy = "study"
	ResponseModeTest  = "test"
)

// QuestionResponse is one answer event. Rows are append-only; the incorrect
// half of this table is what feeds the spaced-review pool.
type QuestionResponse struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_response_user_question,priority:1;index:idx_response_user_correct,priority:1" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index:idx_response_user_question,priority:2" json:"question_id"`
	Question   *Question `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	Mode       string    `gorm:"not null;default:'study'" json:"mode"` // study|test
	Choice     string    `gorm:"not null" json:"choice"`
	Correct    bool      `gorm:"not null;index:idx_response_user_correct,priority:2" json:"correct"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (QuestionResponse) TableName() string { return "question_response" }
