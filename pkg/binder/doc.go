// Package binder fills request structs from the JSON body, the query string
// and router path parameters.
//
// Binders are plain functions with the signature func(*http.Request, any) error
// and are applied in order by handler.Wrap:
//
//	type inviteRequest struct {
//		TeamID string `path:"teamID" json:"-"`
//		Email  string `json:"email"`
//	}
//
//	r.Post("/teams/{teamID}/invites", handler.Wrap(h.createInvite,
//		handler.WithBinders[handler.Context, inviteRequest](
//			binder.Path(chi.URLParam),
//			binder.JSON(),
//		),
//	))
//
// Query and path binding supports string, signed and unsigned integers,
// floats, bools, pointers to those and slices for query values. Fields
// without a tag bind to their lower-cased name; a "-" tag skips the field.
package binder
