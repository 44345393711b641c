package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"section_id"`
	Section      *Section    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SectionID;references:ID" json:"section,omitempty"`
	SubsectionID uuid.UUID   `gorm:"type:uuid;index" json:"subsection_id"`
	Subsection   *Subsection `gorm:"constraint:OnDelete:SET NULL;foreignKey:SubsectionID;references:ID" json:"subsection,omitempty"`
	Stem         string      `gorm:"type:text;not null" json:"stem"`
	// Choices is a JSON array of {"key": "A", "text": "..."} objects.
	Choices       datatypes.JSON `gorm:"column:choices" json:"choices"`
	CorrectChoice string         `gorm:"column:correct_choice;not null" json:"correct_choice"`
	Explanation   string         `gorm:"type:text" json:"explanation,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "question" }
