// token.go — service-токены для blob API (JWT, HS256).
package httpstore

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenAudience — audience service-токенов blob API.
const tokenAudience = "blob-api"

// blobClaims — claims service-токена.
type blobClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// NewTokenSigner возвращает TokenProvider, подписывающий короткоживущие
// JWT (HS256) общим секретом. subject — имя сервиса-клиента.
func NewTokenSigner(secret []byte, subject string, ttl time.Duration) TokenProvider {
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		now := time.Now()
		claims := blobClaims{
			Scope: "blobs:read blobs:write",
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   subject,
				Audience:  jwt.ClaimStrings{tokenAudience},
				IssuedAt:  jwt.NewNumericDate(now),
				NotBefore: jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
		}

		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		if err != nil {
			return "", fmt.Errorf("подпись service-токена: %w", err)
		}
		return signed, nil
	}
}
