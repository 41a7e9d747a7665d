package models

import "time"

// FileType distinguishes learning resources from gradable assignments.
type FileType string

const (
	FileTypeResource   FileType = "resource"
	FileTypeAssignment FileType = "assignment"
)

// Valid reports whether t is a known file type.
func (t FileType) Valid() bool {
	return t == FileTypeResource || t == FileTypeAssignment
}

// File is an uploaded blob shared with a class. ClassID and UserID are not
// enforced by foreign keys.
type File struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Path      string    `db:"path" json:"path"`
	ClassID   string    `db:"class_id" json:"classId"`
	UserID    string    `db:"user_id" json:"userId"`
	Type      FileType  `db:"type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// FileView is a File with a signed, expiring download link.
type FileView struct {
	File
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"downloadExpiresAt"`
}
