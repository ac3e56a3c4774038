package models

import "time"

// UploadRecord keeps metadata of files pushed to the CDN so they can be removed later.
type UploadRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Owner     string    `gorm:"size:64;index" json:"owner"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	URL       string    `gorm:"size:512;not null;uniqueIndex" json:"url"`
	MimeType  string    `gorm:"size:120" json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `gorm:"size:64" json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}
