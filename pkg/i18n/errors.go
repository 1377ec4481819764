package i18n

import "errors"

var (
	ErrNoTranslations     = errors.New("i18n: no translations found")
	ErrFailedToReadFile   = errors.New("i18n: failed to read translation file")
	ErrFailedToParseYAML  = errors.New("i18n: failed to parse yaml")
	ErrInvalidLanguage    = errors.New("i18n: invalid language tag")
	ErrDefaultNotIncluded = errors.New("i18n: default language has no translations")
)
