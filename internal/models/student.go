package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Skill levels a student can declare.
const (
	SkillLevelBeginner     = "Beginner"
	SkillLevelIntermediate = "Intermediate"
	SkillLevelAdvanced     = "Advanced"
)

// Student represents a learner enrolled in one or more courses.
type Student struct {
	ID                 string                      `gorm:"primaryKey;size:64" json:"id"`
	Name               string                      `gorm:"size:255;not null" json:"name"`
	Surname            string                      `gorm:"size:255" json:"surname"`
	Email              string                      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	SkillLevel         string                      `gorm:"size:32" json:"skill_level"`
	TotalScore         int                         `gorm:"default:0" json:"total_score"`
	SubjectsOfInterest datatypes.JSONSlice[string] `gorm:"type:json" json:"subjects_of_interest"`
	IsDeleted          bool                        `gorm:"index;default:false" json:"is_deleted"`
	LastActivity       *time.Time                  `json:"last_activity"`
	Enrollments        []Enrollment                `gorm:"foreignKey:StudentID" json:"-"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// BeforeCreate assigns a document identifier when none was provided.
func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Enrollment links a student to a course. Position keeps the enrollment order.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID string    `gorm:"size:64;not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID  string    `gorm:"size:64;not null;uniqueIndex:idx_enrollment_student_course;index" json:"course_id"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
