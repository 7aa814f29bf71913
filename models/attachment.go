package models

import "time"

// ScanState enum. Pending is the only state a scan may leave.
type ScanState string

const (
	ScanPending  ScanState = "pending"
	ScanClean    ScanState = "clean"
	ScanInfected ScanState = "infected"
)

type Attachment struct {
	ID               int64     `bson:"_id" json:"id"`
	RequestID        int64     `bson:"requestId" json:"request_id"`
	UploadedByID     int64     `bson:"uploadedById" json:"uploaded_by_id"`
	Filename         string    `bson:"filename" json:"filename"`
	OriginalFilename string    `bson:"originalFilename" json:"original_filename"`
	FileSize         int64     `bson:"fileSize" json:"file_size"`
	MimeType         string    `bson:"mimeType" json:"mime_type"`
	Description      *string   `bson:"description,omitempty" json:"description"`
	ScanState        ScanState `bson:"scanState" json:"scan_state"`
	ScanResult       string    `bson:"scanResult,omitempty" json:"scan_result,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"created_at"`
}

// StoredFile describes bytes persisted by the attachment store.
type StoredFile struct {
	Name     string
	Path     string
	Size     int64
	MimeType string
}
