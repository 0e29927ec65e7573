package domain

import "time"

// Blob is the metadata of a stored file.
type Blob struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	Digest    string    `json:"digest"`
	OwnerID   uint      `json:"owner_id"`
	EventID   uint      `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (b Blob) Answer() FileAnswer {
	return FileAnswer{FileID: b.ID, Name: b.Name, MimeType: b.MimeType, Size: b.Size}
}

type BlobUpload struct {
	Name     string
	MimeType string
	OwnerID  uint
	EventID  uint
	Data     []byte
}
