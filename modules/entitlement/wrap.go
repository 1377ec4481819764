package entitlement

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/lessonkit/handler"
	"github.com/dmitrymomot/lessonkit/pkg/binder"
)

var (
	jsonBody    handler.Bind = binder.JSON()
	pathParams  handler.Bind = binder.Path(chi.URLParam)
	queryParams handler.Bind = binder.Query()
)

// optionalJSONBody decodes a JSON body when one is sent.
func optionalJSONBody(r *http.Request, v any) error {
	if r.ContentLength == 0 && strings.TrimSpace(r.Header.Get("Content-Type")) == "" {
		return nil
	}
	return jsonBody(r, v)
}

// noRequest is the request type of handlers without input.
type noRequest struct{}

func wrap[R any](m *Module, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](m.errorHandler),
	)
}
