package entitlement

import (
	"net/http"

	"github.com/dmitrymomot/lessonkit/handler"
	engine "github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/validator"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

type sessionResponse struct {
	Account *engine.Account `json:"account"`
	Session sessionToken    `json:"session"`
}

func (m *Module) register(ctx handler.Context, req registerRequest) handler.Response {
	if err := validator.Apply(
		validator.Required("name", req.Name),
		validator.Required("email", req.Email),
		validator.Required("password", req.Password),
	); err != nil {
		return handler.Error(err)
	}

	acc, err := m.svc.Register(ctx, engine.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  m.isAdminEmail(req.Email),
	})
	if err != nil {
		return handler.Error(err)
	}
	return m.sessionResponse(acc, http.StatusCreated)
}

func (m *Module) isAdminEmail(addr string) bool {
	addr = engine.NormalizeEmail(addr)
	for _, admin := range m.cfg.AdminEmails {
		if engine.NormalizeEmail(admin) == addr {
			return true
		}
	}
	return false
}

func (m *Module) login(ctx handler.Context, req loginRequest) handler.Response {
	acc, err := m.svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return handler.Error(err)
	}
	return m.sessionResponse(acc, http.StatusOK)
}

// refresh re-reads the caller after the expiry sweep and rotates the token.
func (m *Module) refresh(ctx handler.Context, _ noRequest) handler.Response {
	acc, err := m.svc.Refresh(ctx, caller(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return m.sessionResponse(acc, http.StatusOK)
}

func (m *Module) sessionResponse(acc *engine.Account, status int) handler.Response {
	sess, err := m.issueSession(acc.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(sessionResponse{Account: acc, Session: sess}, handler.WithJSONStatus(status))
}

func (m *Module) me(ctx handler.Context, _ noRequest) handler.Response {
	acc, err := m.svc.Refresh(ctx, caller(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(acc)
}

func (m *Module) updateMe(ctx handler.Context, req updateProfileRequest) handler.Response {
	acc, err := m.svc.UpdateProfile(ctx, caller(ctx), req.Name)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(acc)
}

func (m *Module) usage(ctx handler.Context, _ noRequest) handler.Response {
	report, err := m.svc.Usage(ctx, caller(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(report)
}

// consume records one generation without producing a plan.
func (m *Module) consume(ctx handler.Context, _ noRequest) handler.Response {
	if _, err := m.svc.TryConsume(ctx, caller(ctx)); err != nil {
		return handler.Error(err)
	}
	report, err := m.svc.Usage(ctx, caller(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(report)
}

type listAccountsRequest struct {
	Plan string `query:"plan"`
}

func (m *Module) accounts(ctx handler.Context, req listAccountsRequest) handler.Response {
	all, err := m.svc.ListAccounts(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if req.Plan != "" {
		filtered := all[:0]
		for _, acc := range all {
			if string(acc.PlanID) == req.Plan {
				filtered = append(filtered, acc)
			}
		}
		all = filtered
	}
	return handler.JSONList(all)
}

func (m *Module) stats(ctx handler.Context, _ noRequest) handler.Response {
	st, err := m.svc.Stats(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(st)
}
