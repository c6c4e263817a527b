package models

import "time"

// FileInfo represents metadata about a file in one of the ephemeral stores.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}
