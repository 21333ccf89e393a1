// auth/verifier.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"holocron/internal/domain"
)

// UserMetadata содержит пользовательские метаданные из токена Supabase.
// is_admin живёт здесь и является единственным источником истины о роли.
type UserMetadata struct {
	IsAdmin bool `json:"is_admin"`
}

// Claims описывает утверждения access-токена Supabase.
type Claims struct {
	jwt.RegisteredClaims
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

var gJWKS keyfunc.Keyfunc

// InitVerifier инициализирует проверку подписи по JWKS провайдера.
// Ключи кэшируются и обновляются библиотекой по HTTP-заголовкам кэша.
func InitVerifier(ctx context.Context, jwksURL string) error {
	if jwksURL == "" {
		return fmt.Errorf("JWKS URL is required")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return fmt.Errorf("failed to create JWKS client: %w", err)
	}

	gJWKS = jwks
	return nil
}

// VerifyToken проверяет access-токен и возвращает принципала.
func VerifyToken(tokenString string) (*domain.Principal, error) {
	if gJWKS == nil {
		return nil, fmt.Errorf("verifier is not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, gJWKS.Keyfunc)
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	// Защита от подмены алгоритма: допускаем только RS256 и ES256
	switch token.Method.Alg() {
	case "RS256", "ES256":
	default:
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}

	// Анонимные токены отклоняем
	if claims.Role != "authenticated" {
		return nil, domain.ErrUnauthorized
	}

	return &domain.Principal{
		ID:          claims.Subject,
		Email:       claims.Email,
		IsAdmin:     claims.UserMetadata.IsAdmin,
		AccessToken: tokenString,
	}, nil
}

// FromRequest извлекает принципала из заголовка Authorization запроса.
func FromRequest(r *http.Request) (*domain.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("no authorization header: %w", domain.ErrUnauthorized)
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return nil, fmt.Errorf("malformed authorization header: %w", domain.ErrUnauthorized)
	}

	return VerifyToken(tokenString)
}
