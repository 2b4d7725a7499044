package domain

// User is an authenticated actor. Users belong to exactly one tenant; the
// identity context {UserID, TenantID} is carried on every call.
type User struct {
	UserID       string `json:"userID"` // Primary Key (e.g., UUID)
	TenantID     string `json:"tenantID"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}
