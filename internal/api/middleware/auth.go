package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

// Заголовки, которые выставляет шлюз после проверки OTP
const (
	HeaderUserPhone = "X-User-Phone"
	HeaderUserRole  = "X-User-Role"
)

// Роли вызывающего
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

const (
	msgUnauthorized = "требуется авторизация"
	msgForbidden    = "доступ запрещен"
)

type contextKey string

const (
	userPhoneKey contextKey = "user_phone"
	userRoleKey  contextKey = "user_role"
)

// Auth извлекает подтвержденный телефон и роль из заголовков
// Запросы без телефона отклоняются с 401
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		phone := strings.TrimSpace(r.Header.Get(HeaderUserPhone))
		if phone == "" {
			handlers.RespondUnauthorized(w, msgUnauthorized)
			return
		}

		role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
		if role != RoleAdmin {
			role = RoleCustomer
		}

		ctx := context.WithValue(r.Context(), userPhoneKey, phone)
		ctx = context.WithValue(ctx, userRoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin пропускает только администраторов; ставится после Auth
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserPhone(r.Context()); !ok {
			handlers.RespondUnauthorized(w, msgUnauthorized)
			return
		}
		if !IsAdmin(r.Context()) {
			handlers.RespondForbidden(w, msgForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserPhone возвращает телефон вызывающего из контекста
func GetUserPhone(ctx context.Context) (string, bool) {
	phone, ok := ctx.Value(userPhoneKey).(string)
	return phone, ok && phone != ""
}

// IsAdmin сообщает, что вызывающий - администратор
func IsAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(userRoleKey).(string)
	return role == RoleAdmin
}

// WithUser кладет идентичность в контекст (для тестов обработчиков)
func WithUser(ctx context.Context, phone, role string) context.Context {
	ctx = context.WithValue(ctx, userPhoneKey, phone)
	return context.WithValue(ctx, userRoleKey, role)
}
