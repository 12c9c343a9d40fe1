package models

const (
	JobStatusPending = iota
	JobStatusRunning
	JobStatusCompleted
	JobStatusFailed
)

// GenerationJob is produced by the external content-generation pipeline.
// It links every artifact to its owning organization and requesting account.
type GenerationJob struct {
	BaseModel

	Type   string  `json:"type"`
	Status int     `json:"status"`
	Params JSONMap `json:"params"`

	Artifacts []ContentArtifact `json:"artifacts" gorm:"foreignKey:JobID"`

	OrganizationID uint `json:"organization_id" gorm:"index"`
	AccountID      uint `json:"account_id" gorm:"index"`
}
