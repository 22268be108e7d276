package utils

import (
	"time"

	"social-publisher/infrastructure/logger"

	"github.com/golang-jwt/jwt"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	var claims jwt.MapClaims = payload
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}

// GenerateTenantToken mints an admin API token scoped to one tenant.
func GenerateTenantToken(tenantID, userID, role string, ttl time.Duration, secretKey string) (string, error) {
	now := GetCurrentTime()
	return GenerateToken(map[string]interface{}{
		"tenant_id": tenantID,
		"user_id":   userID,
		"role":      role,
		"iss":       "social-publisher",
		"sub":       userID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}, secretKey)
}
