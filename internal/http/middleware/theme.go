package middleware

import (
	"context"
	"net/http"
)

type ContextKey int

const ContextThemeKey ContextKey = iota

const ThemeCookie = "theme"

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Themes reads the theme cookie into the request context. Missing or
// unknown values mean Light.
func Themes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		theme := Light
		if c, err := r.Cookie(ThemeCookie); err == nil && Theme(c.Value) == Dark {
			theme = Dark
		}
		ctx := context.WithValue(r.Context(), ContextThemeKey, theme)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ThemeFrom returns the theme stored by Themes.
func ThemeFrom(ctx context.Context) Theme {
	if t, ok := ctx.Value(ContextThemeKey).(Theme); ok {
		return t
	}
	return Light
}
