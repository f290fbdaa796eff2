package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenIssuer signs and parses the HS256 session tokens handed out after
// login and to admin users.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewTokenIssuer(key []byte) *TokenIssuer {
	return &TokenIssuer{key: key, ttl: 24 * time.Hour}
}

func (t *TokenIssuer) CreateToken(username, name, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"username": username,
			"name":     name,
			"role":     role,
			"exp":      time.Now().Add(t.ttl).Unix(),
		})
	return token.SignedString(t.key)
}

func (t *TokenIssuer) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("no claims found")
	}
	return claims, nil
}
