package models

// Account mirrors the identity record owned by the account service. The engine
// never creates accounts; it only reads the soft-delete marker (BaseModel.DeletedAt)
// and IsActive, and performs the terminal hard deletion after the grace period.
type Account struct {
	BaseModel

	Name         string `json:"name"`
	Nick         string `json:"nick"`
	EmailAddress string `json:"email_address"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`

	Jobs        []GenerationJob `json:"jobs"`
	Sessions    []AuthSession   `json:"sessions"`
	Memberships []OrgMembership `json:"memberships"`
}

type AuthSession struct {
	BaseModel

	UserAgent string `json:"user_agent"`
	IpAddress string `json:"ip_address"`

	AccountID uint `json:"account_id" gorm:"index"`
}
