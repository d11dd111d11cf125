package model

import (
	"time"
)

const (
	FileTypeDocument = "document"

	FileOwnerContent = "content"
)

type File struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"-"`
	OwnerType    string    `db:"owner_type" json:"-"` // "content"
	OwnerID      string    `db:"owner_id" json:"contentId"`
	Type         string    `db:"type" json:"type"`
	Filename     string    `db:"filename" json:"-"`
	OriginalName string    `db:"original_name" json:"name"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	Size         int64     `db:"size" json:"size"`
	StoragePath  string    `db:"storage_path" json:"-"`
	Public       bool      `db:"public" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
