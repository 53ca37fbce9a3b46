// Package middlewarectx содержит HTTP middleware запросов API: аутентификацию,
// проверку лимита, ограничение частоты и проверку роли.
package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// PrincipalKey ключ аутентифицированного пользователя в контексте.
const PrincipalKey Key = "principal"

// WithPrincipal кладёт пользователя в контекст.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFrom достаёт пользователя из контекста. Второе значение false, если его нет.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	if !ok || p.IsZero() {
		return models.Principal{}, false
	}
	return p, true
}
