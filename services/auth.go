package services

import (
	"fmt"
	"math/rand"
	"time"

	"tctc-backend/config"
	"tctc-backend/errors"
	"tctc-backend/utils"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is how long a login token stays valid
const tokenTTL = 30 * 24 * time.Hour

// GenerateToken signs a bearer token for the given user id
func GenerateToken(userID int) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", userID),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseToken validates a bearer token and returns the user id it carries
func ParseToken(tokenString string) (int, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.NewUnauthorizedError("Not authorized, token failed")
	}

	var userID int
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
		return 0, errors.NewUnauthorizedError("Not authorized, token failed")
	}
	return userID, nil
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against its stored hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateStudentID builds a human readable student identifier,
// e.g. TCTC-20261234. Uniqueness is rechecked by the caller.
func GenerateStudentID() string {
	year := time.Now().Year()
	randomNum := 1000 + rand.Intn(9000)
	return fmt.Sprintf("%s-%d%d", utils.StudentIDPrefix, year, randomNum)
}
