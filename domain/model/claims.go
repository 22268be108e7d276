package model

import "github.com/golang-jwt/jwt"

const (
	// RoleAdmin manages one tenant's jobs, connections and rate limits.
	RoleAdmin = "admin"
	// RoleOperator runs the deployment: it controls the shared queue and is
	// not bound to a tenant.
	RoleOperator = "operator"
)

// TenantClaims is the JWT body accepted by the admin API.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	jwt.StandardClaims
}
