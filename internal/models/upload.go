package models

import "time"

// DefaultRecordPath is used when the caller does not supply an internal record path.
const DefaultRecordPath = "/PROJECT/FLOW/01JAN2020/1HOUR/VALUE/"

// UploadRecord describes an uploaded DSS file persisted to the uploads directory.
type UploadRecord struct {
	Name         string    `json:"name"`         // Generated on-disk name: <uuid>_<original>
	OriginalName string    `json:"originalName"` // Client supplied filename
	Path         string    `json:"-"`
	Size         int64     `json:"size"`
	StoredAt     time.Time `json:"storedAt"`
}

// ConversionRequest is the request-scoped input to the conversion stage.
type ConversionRequest struct {
	Upload     *UploadRecord
	RecordPath string
}

// ResolveRecordPath returns the record path, falling back to DefaultRecordPath when blank.
func ResolveRecordPath(p string) string {
	if p == "" {
		return DefaultRecordPath
	}
	return p
}
