package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/alawneh/eway-backoffice/internal/domain"
)

type Claims struct {
	CashierID uuid.UUID
	Username  string
	Role      domain.Role
}

type tokenClaims struct {
	jwt.RegisteredClaims
	CashierID string `json:"cashier_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

func GenerateToken(cashierID uuid.UUID, username string, role domain.Role, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		CashierID: cashierID.String(),
		Username:  username,
		Role:      string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateToken: %w", err)
	}
	return signed, nil
}

func ValidateToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("ValidateToken: invalid token claims")
	}

	cashierID, err := uuid.Parse(tc.CashierID)
	if err != nil {
		return nil, fmt.Errorf("ValidateToken: invalid cashier_id in token: %w", err)
	}

	return &Claims{
		CashierID: cashierID,
		Username:  tc.Username,
		Role:      domain.ParseRole(tc.Role),
	}, nil
}
