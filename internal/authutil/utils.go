package authutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// OperatorClaims identify a ledger operator. Subject holds the operator id
// recorded in the journal for every adjustment they make.
type OperatorClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

func (c *OperatorClaims) String() string {
	return fmt.Sprintf("Operator(%s, admin=%v)", c.Subject, c.Admin)
}

func IssueOperatorToken(secret, operatorID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is empty")
	}

	now := time.Now()
	claims := OperatorClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

func ParseOperatorToken(secret, raw string) (*OperatorClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: jwt secret is empty", ErrInvalidToken)
	}

	parsed, err := jwt.ParseWithClaims(raw, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*OperatorClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Admin || claims.Subject == "" {
		return nil, fmt.Errorf("%w: not an operator token", ErrInvalidToken)
	}

	return claims, nil
}
