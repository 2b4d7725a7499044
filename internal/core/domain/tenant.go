package domain

// Tenant is an isolated set of books: chart of accounts, documents, journals,
// fiscal periods. Every query into tenant data is scoped by TenantID.
type Tenant struct {
	TenantID          string `json:"tenantID"` // Primary Key (e.g., UUID)
	Name              string `json:"name"`
	BaseCurrencyCode  string `json:"baseCurrencyCode"`  // Reporting currency for all journal lines
	AllowSelfApproval bool   `json:"allowSelfApproval"` // Policy: may a creator approve their own document
	IsActive          bool   `json:"isActive"`
	AuditFields
}
