package dto

// RegisterRequest creates a tenant together with its first user.
type RegisterRequest struct {
	TenantName       string `json:"tenantName" binding:"required"`
	BaseCurrencyCode string `json:"baseCurrencyCode" binding:"required,len=3"`
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
}

// LoginRequest authenticates an existing user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued identity token.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userID"`
	TenantID string `json:"tenantID"`
}
