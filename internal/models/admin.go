package models

import "time"

// AdminLoginRequest represents the admin login payload
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminRefreshRequest carries a refresh token
type AdminRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AdminLoginResponse represents the tokens issued on login
type AdminLoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	Username     string `json:"username"`
}

// IngestRequest selects which feeds to reload
type IngestRequest struct {
	Metro bool `json:"metro"`
	Bus   bool `json:"bus"`
	Force bool `json:"force"`
}

// AuditEvent is one recorded admin security event
type AuditEvent struct {
	ID        string                 `json:"id"`
	Actor     string                 `json:"actor"`
	Action    string                 `json:"action"`
	IPAddress string                 `json:"ip_address"`
	UserAgent string                 `json:"user_agent"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
