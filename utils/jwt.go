package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

// TokenExpiry is the fixed bearer token lifetime.
const TokenExpiry = 7 * 24 * time.Hour

// ErrNoSecret is returned when JWT_SECRET is not configured. Issuance must
// fail hard in that case, never fall back to an unsigned token.
var ErrNoSecret = errors.New("JWT_SECRET not set")

// ErrInvalidToken covers every validation failure uniformly: bad signature,
// expiry, malformed payload. Callers get no partial trust.
var ErrInvalidToken = errors.New("invalid token")

// GenerateToken issues a signed bearer token binding a mentor id to a role.
func GenerateToken(mentorID int64, role string) (string, error) {
	secret := viper.GetString("JWT_SECRET")
	if secret == "" {
		return "", ErrNoSecret
	}

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(mentorID, 10),
		"role": role,
		"exp":  time.Now().Add(TokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken verifies signature and expiry and returns the subject mentor
// id and role claim.
func ValidateToken(tokenString string) (int64, string, error) {
	secret := viper.GetString("JWT_SECRET")
	if secret == "" {
		return 0, "", ErrNoSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	mentorID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}

	role, _ := claims["role"].(string)

	return mentorID, role, nil
}
