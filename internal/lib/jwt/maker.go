// Package jwt выпускает и проверяет токены входа в систему.
//
// Токен входа не имеет отношения к посещению коворкинга (CheckinSession):
// он лишь удостоверяет, кто обращается к API и с какой ролью.
package jwt

import (
	"time"

	"github.com/google/uuid"
)

// Maker описывает генерацию и разбор токенов входа.
type Maker interface {
	GenerateToken(memberID uuid.UUID, role string) (string, error)
	ParseToken(tokenStr string) (*LoginClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа и времени жизни токена.
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
