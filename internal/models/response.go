package models

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// UploadResponse is returned on a successful POST /upload request.
type UploadResponse struct {
	Status      string         `json:"status"`
	Message     string         `json:"message"`
	DownloadURL string         `json:"downloadUrl"`
	Summary     *SeriesSummary `json:"summary,omitempty"`
}
