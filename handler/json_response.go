package handler

import (
	"encoding/json"
	"net/http"
)

// JSONResponse is the response envelope.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail is the error body of a JSON envelope.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption customizes a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus overrides the default 200 status.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONMeta attaches a meta object to the envelope.
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		r.body.Meta = meta
	}
}

func withErrorDetail(d *ErrorDetail) JSONOption {
	return func(r *jsonResponse) {
		r.body.Error = d
	}
}

// JSON responds 200 with v as data.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONList responds with items as data and their count in meta.
func JSONList[T any](items []T, opts ...JSONOption) Response {
	if items == nil {
		items = []T{}
	}
	return JSON(items, append([]JSONOption{WithJSONMeta(map[string]any{"count": len(items)})}, opts...)...)
}
