package i18n

import "net/http"

const (
	// maxAcceptLanguageLength caps the header before parsing.
	maxAcceptLanguageLength = 4096
	maxLangCodeLength       = 35

	paramName = "lang"
)

// Middleware resolves the request language and stores it with SetLocale.
func Middleware(t *Translator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(SetLocale(r.Context(), t.FromRequest(r))))
		})
	}
}

// FromRequest resolves the language for r without touching the context.
func (t *Translator) FromRequest(r *http.Request) string {
	if lang := t.Supported(r.URL.Query().Get(paramName)); lang != "" {
		return lang
	}
	if c, err := r.Cookie(paramName); err == nil {
		if lang := t.Supported(c.Value); lang != "" {
			return lang
		}
	}
	return t.Match(r.Header.Get("Accept-Language"))
}
