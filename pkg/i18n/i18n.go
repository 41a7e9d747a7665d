// Package i18n resolves the caller's language and translates API messages and
// validation errors. Catalogs are flat JSON files embedded at build time;
// keys missing from a catalog fall back to the default language.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var catalogFS embed.FS

// Bundle holds the message catalogs and the language matcher.
type Bundle struct {
	defaultLang string
	supported   []string
	matcher     language.Matcher
	messages    map[string]map[string]string
	uni         *ut.UniversalTranslator
}

// New loads catalogs for every supported language. The default language must
// be supported and have a catalog.
func New(defaultLang string, supported []string) (*Bundle, error) {
	if defaultLang == "" {
		defaultLang = "en"
	}
	if len(supported) == 0 {
		supported = []string{defaultLang}
	}

	b := &Bundle{defaultLang: defaultLang, messages: map[string]map[string]string{}}
	// the default goes first so the matcher falls back to it
	ordered := append([]string{defaultLang}, supported...)
	tags := make([]language.Tag, 0, len(ordered))
	for _, lang := range ordered {
		if _, dup := b.messages[lang]; dup {
			continue
		}
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("parse language %q: %w", lang, err)
		}
		catalog, err := loadCatalog(lang)
		if err != nil {
			return nil, err
		}
		b.messages[lang] = catalog
		b.supported = append(b.supported, lang)
		tags = append(tags, tag)
	}
	b.matcher = language.NewMatcher(tags)

	enLocale := en.New()
	b.uni = ut.New(enLocale, enLocale, fr.New())
	return b, nil
}

func loadCatalog(lang string) (map[string]string, error) {
	raw, err := catalogFS.ReadFile(path.Join("locales", lang+".json"))
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", lang, err)
	}
	catalog := map[string]string{}
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", lang, err)
	}
	return catalog, nil
}

// Default returns the fallback language.
func (b *Bundle) Default() string { return b.defaultLang }

// Supported lists the languages with a catalog, default first.
func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	copy(out, b.supported)
	return out
}

// IsSupported reports whether lang has a catalog.
func (b *Bundle) IsSupported(lang string) bool {
	_, ok := b.messages[strings.ToLower(lang)]
	return ok
}

// Match picks the best supported language for an explicit preference and/or
// an Accept-Language header value. Explicit preferences win when supported.
func (b *Bundle) Match(preferred string, acceptLanguage string) string {
	if preferred != "" {
		if tag, err := language.Parse(preferred); err == nil {
			if _, idx, conf := b.matcher.Match(tag); conf != language.No {
				return b.supported[idx]
			}
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			if _, idx, conf := b.matcher.Match(tags...); conf != language.No {
				return b.supported[idx]
			}
		}
	}
	return b.defaultLang
}

// T translates key into lang. Extra args are applied with fmt.Sprintf.
func (b *Bundle) T(lang, key string, args ...interface{}) string {
	msg, ok := b.messages[lang][key]
	if !ok {
		msg, ok = b.messages[b.defaultLang][key]
	}
	if !ok {
		msg = key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// RegisterValidator reports json field names in validation errors and installs
// the default en and fr translations.
func (b *Bundle) RegisterValidator(v *validator.Validate) error {
	v.RegisterTagNameFunc(fieldName)

	enTrans, _ := b.uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, enTrans); err != nil {
		return fmt.Errorf("register en translations: %w", err)
	}
	frTrans, _ := b.uni.GetTranslator("fr")
	if err := fr_translations.RegisterDefaultTranslations(v, frTrans); err != nil {
		return fmt.Errorf("register fr translations: %w", err)
	}
	return nil
}

// ValidationDetails maps each failing field to a translated message. It
// returns nil when err is not a validator error. Languages without validator
// translations use English.
func (b *Bundle) ValidationDetails(lang string, err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	trans, found := b.uni.GetTranslator(lang)
	if !found {
		trans, _ = b.uni.GetTranslator("en")
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Translate(trans)
	}
	return details
}

func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
