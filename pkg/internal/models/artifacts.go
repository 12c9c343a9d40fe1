package models

const (
	ArtifactTypeText  = "text"
	ArtifactTypeAudio = "audio"
	ArtifactTypeVideo = "video"
	ArtifactTypeImage = "image"
)

// ContentArtifact is one generated output owned by a job. A nil StorageKey
// means the payload was never persisted to object storage and deleting the
// row alone is a complete deletion.
type ContentArtifact struct {
	BaseModel

	Uuid       string  `json:"uuid"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	MimeType   string  `json:"mimetype"`
	Size       int64   `json:"size"`
	StorageKey *string `json:"storage_key"`

	Metadata JSONMap `json:"metadata"`

	JobID uint          `json:"job_id" gorm:"index"`
	Job   GenerationJob `json:"job"`
}
