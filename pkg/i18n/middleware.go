package i18n

import (
	"github.com/gin-gonic/gin"
)

const (
	// LanguageKey is the gin context key holding the negotiated language.
	LanguageKey = "language"
	bundleKey   = "i18n_bundle"

	queryParam = "lng"
	cookieName = "i18next"
)

// Middleware resolves the request language from ?lng=, the i18next cookie or
// Accept-Language, in that order, and exposes it to handlers.
func Middleware(b *Bundle) gin.HandlerFunc {
	return func(c *gin.Context) {
		preferred := c.Query(queryParam)
		if preferred == "" {
			if cookie, err := c.Cookie(cookieName); err == nil {
				preferred = cookie
			}
		}
		lang := b.Match(preferred, c.GetHeader("Accept-Language"))

		c.Set(LanguageKey, lang)
		c.Set(bundleKey, b)
		c.Header("Content-Language", lang)
		c.Next()
	}
}

// Language returns the negotiated language or "en" outside the middleware.
func Language(c *gin.Context) string {
	if lang := c.GetString(LanguageKey); lang != "" {
		return lang
	}
	return "en"
}

// T translates key for the current request.
func T(c *gin.Context, key string, args ...interface{}) string {
	b := bundleFrom(c)
	if b == nil {
		return key
	}
	return b.T(Language(c), key, args...)
}

// Details translates validation errors for the current request.
func Details(c *gin.Context, err error) map[string]string {
	b := bundleFrom(c)
	if b == nil {
		return nil
	}
	return b.ValidationDetails(Language(c), err)
}

func bundleFrom(c *gin.Context) *Bundle {
	v, ok := c.Get(bundleKey)
	if !ok {
		return nil
	}
	b, _ := v.(*Bundle)
	return b
}
