// Package session управляет cookie, в которой браузер хранит токен.
package session

import (
	"net/http"
	"time"
)

// Config параметры cookie. Secure включает Secure и SameSite=Strict.
type Config struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// SetToken записывает токен в httpOnly cookie.
func SetToken(w http.ResponseWriter, cfg Config, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite(cfg),
	})
}

// Clear удаляет cookie с токеном.
func Clear(w http.ResponseWriter, cfg Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite(cfg),
	})
}

func sameSite(cfg Config) http.SameSite {
	if cfg.Secure {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}
