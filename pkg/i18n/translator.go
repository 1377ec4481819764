package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Translator holds flattened catalogs for a fixed set of languages.
// It is read-only after construction and safe for concurrent use.
type Translator struct {
	messages    map[string]map[string]string
	tags        []language.Tag
	names       []string
	matcher     language.Matcher
	defaultLang string
}

// New loads every .yaml/.yml file at the root of fsys. defaultLang must be
// one of the loaded languages and is listed first for matching.
func New(fsys fs.FS, defaultLang string) (*Translator, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Join(ErrFailedToReadFile, err)
	}

	messages := make(map[string]map[string]string)
	for _, f := range files {
		ext := path.Ext(f.Name())
		if f.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		raw, err := fs.ReadFile(fsys, f.Name())
		if err != nil {
			return nil, errors.Join(ErrFailedToReadFile, err)
		}
		if err := parseYAML(raw, messages); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFailedToParseYAML, f.Name(), err)
		}
	}
	if len(messages) == 0 {
		return nil, ErrNoTranslations
	}
	if _, ok := messages[defaultLang]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrDefaultNotIncluded, defaultLang)
	}

	names := make([]string, 0, len(messages))
	for lang := range messages {
		if lang != defaultLang {
			names = append(names, lang)
		}
	}
	slices.Sort(names)
	names = append([]string{defaultLang}, names...)

	tags := make([]language.Tag, len(names))
	for i, name := range names {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLanguage, name)
		}
		tags[i] = tag
	}

	return &Translator{
		messages:    messages,
		tags:        tags,
		names:       names,
		matcher:     language.NewMatcher(tags),
		defaultLang: defaultLang,
	}, nil
}

// MustNew is New that panics on error.
func MustNew(fsys fs.FS, defaultLang string) *Translator {
	t, err := New(fsys, defaultLang)
	if err != nil {
		panic(err)
	}
	return t
}

func parseYAML(raw []byte, into map[string]map[string]string) error {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for lang, tree := range doc {
		node, ok := tree.(map[string]any)
		if !ok {
			return fmt.Errorf("language %q: expected a mapping, got %T", lang, tree)
		}
		if into[lang] == nil {
			into[lang] = make(map[string]string)
		}
		flatten("", node, into[lang])
	}
	return nil
}

func flatten(prefix string, node map[string]any, into map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, into)
		case nil:
		default:
			into[key] = fmt.Sprint(val)
		}
	}
}

// Languages returns the loaded languages, default first.
func (t *Translator) Languages() []string {
	return slices.Clone(t.names)
}

// Default returns the default language.
func (t *Translator) Default() string {
	return t.defaultLang
}

// Has reports whether lang has a message for key.
func (t *Translator) Has(lang, key string) bool {
	_, ok := t.messages[lang][key]
	return ok
}

var placeholder = regexp.MustCompile(`%\{([^}]+)\}`)

// T returns the message for key in lang, falling back to the default
// language and then to the key itself. args are name/value pairs.
func (t *Translator) T(lang, key string, args ...string) string {
	msg, ok := t.messages[lang][key]
	if !ok {
		msg, ok = t.messages[t.defaultLang][key]
	}
	if !ok {
		msg = key
	}
	if len(args) < 2 {
		return msg
	}

	params := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		params[args[i]] = args[i+1]
	}
	return placeholder.ReplaceAllStringFunc(msg, func(m string) string {
		if v, ok := params[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Match picks the best loaded language for an Accept-Language header value.
// An empty or unmatched header yields the default language.
func (t *Translator) Match(acceptLanguage string) string {
	if len(acceptLanguage) > maxAcceptLanguageLength {
		acceptLanguage = acceptLanguage[:maxAcceptLanguageLength]
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return t.defaultLang
	}
	_, idx, conf := t.matcher.Match(desired...)
	if conf == language.No {
		return t.defaultLang
	}
	return t.names[idx]
}

// Supported returns the canonical loaded name for lang, or "" when lang is
// not loaded. Matching is case-insensitive and falls back to the base language.
func (t *Translator) Supported(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" || len(lang) > maxLangCodeLength {
		return ""
	}
	for _, name := range t.names {
		if strings.EqualFold(name, lang) {
			return name
		}
	}
	base, _, _ := strings.Cut(lang, "-")
	for _, name := range t.names {
		if strings.EqualFold(name, base) {
			return name
		}
	}
	return ""
}
