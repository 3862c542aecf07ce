package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken токен не прошёл проверку.
var ErrInvalidToken = errors.New("invalid token")

// LoginClaims данные, хранящиеся в токене входа.
type LoginClaims struct {
	MemberID             uuid.UUID `json:"member_id"`
	Role                 string    `json:"role"`
	jwt.RegisteredClaims           // ExpiresAt, IssuedAt и пр.
}

// GenerateToken создает токен входа для участника с указанной ролью.
func (j *MakerImpl) GenerateToken(memberID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := LoginClaims{
		MemberID: memberID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken проверяет подпись и срок действия токена и возвращает его данные.
func (j *MakerImpl) ParseToken(tokenStr string) (*LoginClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &LoginClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*LoginClaims)
	if !ok || !token.Valid || claims.MemberID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims, nil
}
