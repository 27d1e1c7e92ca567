package model

import "time"

// StoredFile is one physically persisted blob and its catalog row.
// Fingerprint is unique across the catalog; rows are never updated or deleted.
type StoredFile struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	Fingerprint string    `json:"fingerprint"`
	Location    string    `json:"location"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileMetadata is the read-only view of a stored file exchanged with other services.
type FileMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileContent is a stored file together with its bytes.
type FileContent struct {
	FileMetadata
	Data []byte `json:"bytes"`
}
