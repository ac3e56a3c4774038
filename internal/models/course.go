package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lesson content types.
const (
	LessonContentFile  = "file"
	LessonContentLink  = "link"
	LessonContentVideo = "video"
)

// Course is a unit of study made of ordered lessons.
type Course struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:120" json:"category"`
	Difficulty  string    `gorm:"size:32" json:"difficulty"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	Lessons     []Lesson  `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a document identifier when none was provided.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Lesson is a piece of course content that may carry a quiz.
type Lesson struct {
	ID          string                      `gorm:"primaryKey;size:64" json:"id"`
	CourseID    string                      `gorm:"size:64;not null;index" json:"course_id"`
	Title       string                      `gorm:"size:255" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	ContentType string                      `gorm:"size:32" json:"content_type"`
	ContentURLs datatypes.JSONSlice[string] `gorm:"type:json" json:"content_urls"`
	Position    int                         `gorm:"not null;default:0" json:"position"`
	UploadedAt  time.Time                   `json:"uploaded_at"`
}

// BeforeCreate assigns a document identifier and upload timestamp.
func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.UploadedAt.IsZero() {
		l.UploadedAt = time.Now().UTC()
	}
	return nil
}
