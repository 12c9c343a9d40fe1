package models

// Subscription plan tags. The billing state machine owns the full subscription
// lifecycle; this engine only reads the current tag to derive retention windows.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

type Organization struct {
	BaseModel

	Name string `json:"name"`
	Slug string `json:"slug" gorm:"uniqueIndex"`
	Plan string `json:"plan" gorm:"default:'free'"`

	Jobs []GenerationJob `json:"jobs"`
}

type OrgMembership struct {
	BaseModel

	Role int `json:"role"`

	AccountID      uint `json:"account_id" gorm:"index"`
	OrganizationID uint `json:"organization_id" gorm:"index"`
}
