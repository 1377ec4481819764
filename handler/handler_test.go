package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/handler"
	"github.com/dmitrymomot/lessonkit/pkg/binder"
	"github.com/dmitrymomot/lessonkit/pkg/i18n"
	"github.com/dmitrymomot/lessonkit/pkg/validator"
)

type greetRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWrap(t *testing.T) {
	t.Parallel()

	greet := func(ctx handler.Context, req greetRequest) handler.Response {
		return handler.JSON(map[string]string{"hello": req.Name}, handler.WithJSONStatus(http.StatusCreated))
	}

	t.Run("binds and renders", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(greet, handler.WithBinders[handler.Context, greetRequest](binder.JSON()))

		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{"hello": "Ana"}, decode(t, w).Data)
	})

	t.Run("binder error goes to error handler", func(t *testing.T) {
		t.Parallel()
		var got error
		h := handler.Wrap(greet,
			handler.WithBinders[handler.Context, greetRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, greetRequest](func(ctx handler.Context, err error) {
				got = err
				ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
			}),
		)

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)))
		assert.ErrorIs(t, got, binder.ErrMissingContentType)
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()
		var order []string
		mark := func(name string) handler.Decorator[handler.Context, greetRequest] {
			return func(next handler.HandlerFunc[handler.Context, greetRequest]) handler.HandlerFunc[handler.Context, greetRequest] {
				return func(ctx handler.Context, req greetRequest) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(greet, handler.WithDecorators(mark("outer"), mark("inner")))
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"outer", "inner"}, order)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, greetRequest) handler.Response { return nil })
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "http.errors.internal", decode(t, w).Error.Code)
	})

	t.Run("error response uses http error status", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, greetRequest) handler.Response {
			return handler.Error(handler.ErrForbidden)
		})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestEmptyAndList(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	require.NoError(t, handler.Empty().Render(w, httptest.NewRequest(http.MethodDelete, "/", nil)))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = httptest.NewRecorder()
	require.NoError(t, handler.JSONList[string](nil).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	body := decode(t, w)
	assert.Equal(t, []any{}, body.Data)
	assert.Equal(t, float64(0), body.Meta["count"])
}

var errQuota = errors.New("entitlement.errors.quota_exceeded")

func testTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	return i18n.MustNew(fstest.MapFS{
		"pt.yaml": {Data: []byte(`pt-BR:
  entitlement:
    errors:
      quota_exceeded: "Limite atingido."
  http:
    errors:
      internal: "Erro interno."
      validation_failed: "Verifique os campos."
  validation:
    min_length: "Mínimo de %{min} caracteres."
`)},
		"en.yaml": {Data: []byte(`en:
  entitlement:
    errors:
      quota_exceeded: "Limit reached."
`)},
	}, "pt-BR")
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	errHandler := handler.NewErrorHandler(nil, handler.ErrorHandlerConfig{
		Translator: testTranslator(t),
		Mappers: []handler.ErrorMapper{func(err error) (handler.HTTPError, bool) {
			if errors.Is(err, errQuota) {
				return handler.NewHTTPError(http.StatusPaymentRequired, errQuota.Error()), true
			}
			return handler.HTTPError{}, false
		}},
	})

	run := func(err error, lang string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if lang != "" {
			r.Header.Set("Accept-Language", lang)
		}
		w := httptest.NewRecorder()
		errHandler(handler.NewContext(w, r), err)
		return w
	}

	t.Run("mapped domain error is translated", func(t *testing.T) {
		t.Parallel()
		w := run(errors.Join(errQuota, errors.New("ctx")), "en-US")
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		body := decode(t, w)
		assert.Equal(t, "entitlement.errors.quota_exceeded", body.Error.Code)
		assert.Equal(t, "Limit reached.", body.Error.Message)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		t.Parallel()
		w := run(errors.New("boom"), "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Erro interno.", decode(t, w).Error.Message)
	})

	t.Run("validation errors carry details", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(validator.MinLen("name", "a", 2))
		w := run(err, "pt-BR")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Verifique os campos.", body.Error.Message)
		assert.Equal(t, []string{"Mínimo de 2 caracteres."}, body.Error.Details["name"])
	})

	t.Run("binder errors are client errors", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, http.StatusBadRequest, run(binder.ErrFailedToParseJSON, "").Code)
		assert.Equal(t, http.StatusUnsupportedMediaType, run(binder.ErrMissingContentType, "").Code)
		assert.Equal(t, http.StatusBadRequest, run(binder.ErrFailedToParsePath, "").Code)
	})
}
