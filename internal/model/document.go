package model

import "time"

// Document is a user-owned file (PDF, text, office doc) optionally bound to
// at most one course. Deletion of the owning course cascades to it.
type Document struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	CourseID    *int64    `json:"course_id,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Payload     []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Image mirrors Document for the image-upload surface.
type Image struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	CourseID    *int64    `json:"course_id,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Payload     []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	MaxDocumentSizeBytes = 30 * 1024 * 1024
	MaxImageSizeBytes    = 5 * 1024 * 1024
)

var AllowedDocumentMIMETypes = map[string]string{
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"application/json": ".json",
	"text/csv":        ".csv",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

var AllowedImageMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}
