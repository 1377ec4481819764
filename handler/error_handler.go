package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/dmitrymomot/lessonkit/pkg/binder"
	"github.com/dmitrymomot/lessonkit/pkg/i18n"
	"github.com/dmitrymomot/lessonkit/pkg/logger"
	"github.com/dmitrymomot/lessonkit/pkg/validator"
)

// ErrorMapper translates a package error into an HTTPError. It reports false
// for errors it does not know.
type ErrorMapper func(err error) (HTTPError, bool)

// ErrorHandlerConfig controls how errors are mapped to responses.
type ErrorHandlerConfig struct {
	// Translator localizes error keys. Keys are rendered as-is when nil.
	Translator *i18n.Translator
	// Mappers run in order before the built-in classification.
	Mappers []ErrorMapper
}

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	StatusCode int
	Key        string
	Fields     validator.ValidationErrors
}

func classifyError(err error, mappers []ErrorMapper) ErrorInfo {
	if ve := validator.Extract(err); ve != nil {
		return ErrorInfo{StatusCode: ErrValidation.Code, Key: ErrValidation.Key, Fields: ve}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{StatusCode: httpErr.Code, Key: httpErr.Key}
	}

	for _, m := range mappers {
		if he, ok := m(err); ok {
			return ErrorInfo{StatusCode: he.Code, Key: he.Key}
		}
	}

	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return ErrorInfo{StatusCode: http.StatusUnsupportedMediaType, Key: ErrInvalidJSON.Key}
	case errors.Is(err, binder.ErrBodyTooLarge):
		return ErrorInfo{StatusCode: http.StatusRequestEntityTooLarge, Key: ErrBadRequest.Key}
	case errors.Is(err, binder.ErrFailedToParseJSON):
		return ErrorInfo{StatusCode: ErrInvalidJSON.Code, Key: ErrInvalidJSON.Key}
	case errors.Is(err, binder.ErrFailedToParseQuery), errors.Is(err, binder.ErrFailedToParsePath):
		return ErrorInfo{StatusCode: ErrBadRequest.Code, Key: ErrBadRequest.Key}
	}

	return ErrorInfo{StatusCode: ErrInternal.Code, Key: ErrInternal.Key}
}

// NewErrorHandler renders errors as the JSON envelope. Server errors are
// logged at Error, client errors at Debug.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := classifyError(err, cfg.Mappers)

		level := slog.LevelDebug
		if info.StatusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("code", info.Key),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		lang := i18n.GetLocale(r.Context())
		if lang == "" && cfg.Translator != nil {
			lang = cfg.Translator.FromRequest(r)
		}

		detail := &ErrorDetail{
			Code:    info.Key,
			Message: translate(cfg.Translator, lang, info.Key, nil),
		}
		if len(info.Fields) > 0 {
			detail.Details = make(map[string][]string, len(info.Fields))
			for _, f := range info.Fields {
				detail.Details[f.Field] = append(detail.Details[f.Field], translate(cfg.Translator, lang, f.Key, f.Params))
			}
		}

		resp := JSON(nil, WithJSONStatus(info.StatusCode), withErrorDetail(detail))
		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.Error(renderErr),
				logger.Component("error_handler"),
			)
		}
	}
}

func translate(t *i18n.Translator, lang, key string, params map[string]any) string {
	if t == nil {
		return key
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]string, 0, len(params)*2)
	for _, name := range names {
		args = append(args, name, fmt.Sprint(params[name]))
	}
	return t.T(lang, key, args...)
}
