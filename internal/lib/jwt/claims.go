// Package jwt выпускает и проверяет JWT токены сессии.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateToken(username, role, useruid string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены секретным ключом по HS256.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// CustomClaims данные учётной записи, хранящиеся в JWT.
type CustomClaims struct {
	UserUID  string `json:"user_uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Principal возвращает аутентифицированного пользователя из claims.
func (c *CustomClaims) Principal() models.Principal {
	return models.Principal{
		UserUID:  c.UserUID,
		Username: c.Username,
		Role:     c.Role,
	}
}
