// Package handler provides typed HTTP handlers that bind a request struct,
// run business logic and render a JSON response.
//
//	type createTeamRequest struct {
//		Name string `json:"name"`
//	}
//
//	func (h *Handler) createTeam(ctx handler.Context, req createTeamRequest) handler.Response {
//		team, err := h.svc.CreateTeam(ctx, caller(ctx), req.Name)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(team, handler.WithJSONStatus(http.StatusCreated))
//	}
//
//	r.Post("/teams", handler.Wrap(h.createTeam,
//		handler.WithBinders[handler.Context, createTeamRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, createTeamRequest](errHandler),
//	))
//
// Every successful or failed response uses the same envelope:
//
//	{"data": ..., "meta": {...}, "error": {"code": "...", "message": "...", "details": {...}}}
//
// Errors returned from binders, from Error responses or from rendering go to
// the configured ErrorHandler. NewErrorHandler classifies them into an HTTP
// status and a message key, translates the key for the request language and
// logs server errors.
package handler
