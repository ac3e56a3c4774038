package dto

import "time"

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns a signed bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TutorAskRequest is a free-text question for the tutor.
type TutorAskRequest struct {
	Question string `json:"question" validate:"required,max=1000"`
}

// TutorAnswerResponse is the tutor reply.
type TutorAnswerResponse struct {
	Answer     string  `json:"answer"`
	Source     string  `json:"source"`
	Matched    bool    `json:"matched"`
	Similarity float64 `json:"similarity"`
	MatchedFor string  `json:"matched_question,omitempty"`
}

// UploadResponse describes a file stored on the CDN.
type UploadResponse struct {
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}
