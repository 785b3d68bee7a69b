package helper

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

func GenerateToken(u model.User) (string, error) {
	return signToken(u, TokenAccess, ttl(config.Env.AccessTokenTTL, 30*time.Minute))
}

func GenerateRefreshToken(u model.User) (string, error) {
	return signToken(u, TokenRefresh, ttl(config.Env.RefreshTokenTTL, 7*24*time.Hour))
}

func signToken(u model.User, typ string, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := model.JWTClaims{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.GetJWTSecret()))
}

func ValidateToken(tokenString string) (*model.JWTClaims, error) {
	secret := config.GetJWTSecret()
	token, err := jwt.ParseWithClaims(tokenString, &model.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*model.JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// TokenExpiry is the moment a token stops being valid, used to age out
// blacklist entries. Unparseable tokens fall back to the refresh lifetime.
func TokenExpiry(tokenString string) time.Time {
	claims, err := ValidateToken(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return time.Now().Add(ttl(config.Env.RefreshTokenTTL, 7*24*time.Hour))
	}
	return claims.ExpiresAt.Time
}

func ttl(configured, fallback time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return fallback
}
