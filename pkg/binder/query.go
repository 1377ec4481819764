package binder

import "net/http"

// Query binds URL query parameters using `query` struct tags.
//
//	type listRequest struct {
//		Limit int    `query:"limit"`
//		Plan  string `query:"plan"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
