package entitlement

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/lessonkit/handler"
	engine "github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/email"
	"github.com/dmitrymomot/lessonkit/pkg/email/templates"
	"github.com/dmitrymomot/lessonkit/pkg/i18n"
	"github.com/dmitrymomot/lessonkit/pkg/logger"
)

type createTeamRequest struct {
	Name string `json:"name"`
}

type teamRequest struct {
	TeamID string `path:"teamID"`
}

type createInviteRequest struct {
	TeamID string `path:"teamID" json:"-"`
	Email  string `json:"email"`
}

type revokeInviteRequest struct {
	TeamID string `path:"teamID"`
	Token  string `path:"token"`
}

type removeMemberRequest struct {
	TeamID    string `path:"teamID"`
	AccountID string `path:"accountID"`
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

type inviteResponse struct {
	*engine.Invite
	AcceptURL string `json:"accept_url"`
	Emailed   bool   `json:"emailed"`
}

func (m *Module) createTeam(ctx handler.Context, req createTeamRequest) handler.Response {
	team, err := m.svc.CreateTeam(ctx, caller(ctx), req.Name)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(team, handler.WithJSONStatus(http.StatusCreated))
}

// team is visible to its members only.
func (m *Module) team(ctx handler.Context, req teamRequest) handler.Response {
	team, err := m.memberTeam(ctx, req.TeamID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(team)
}

func (m *Module) members(ctx handler.Context, req teamRequest) handler.Response {
	if _, err := m.memberTeam(ctx, req.TeamID); err != nil {
		return handler.Error(err)
	}
	members, err := m.svc.ListMembers(ctx, req.TeamID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSONList(members)
}

func (m *Module) createInvite(ctx handler.Context, req createInviteRequest) handler.Response {
	team, err := m.adminTeam(ctx, req.TeamID)
	if err != nil {
		return handler.Error(err)
	}
	inv, err := m.svc.CreateInvite(ctx, team.ID, req.Email)
	if err != nil {
		return handler.Error(err)
	}

	resp := inviteResponse{Invite: inv, AcceptURL: m.acceptURL(inv)}
	resp.Emailed = m.sendInvite(ctx, team, inv, resp.AcceptURL)
	return handler.JSON(resp, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) revokeInvite(ctx handler.Context, req revokeInviteRequest) handler.Response {
	if _, err := m.adminTeam(ctx, req.TeamID); err != nil {
		return handler.Error(err)
	}
	if err := m.svc.RevokeInvite(ctx, req.TeamID, req.Token); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

func (m *Module) removeMember(ctx handler.Context, req removeMemberRequest) handler.Response {
	team, err := m.adminTeam(ctx, req.TeamID)
	if err != nil {
		return handler.Error(err)
	}
	if req.AccountID == team.AdminID {
		return handler.Error(engine.ErrCannotRemoveAdmin)
	}
	acc, err := m.svc.RemoveMember(ctx, req.AccountID, team.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(acc)
}

// acceptInvite redeems the invite for the caller's own email.
func (m *Module) acceptInvite(ctx handler.Context, req acceptInviteRequest) handler.Response {
	me, err := m.svc.Account(ctx, caller(ctx))
	if err != nil {
		return handler.Error(err)
	}
	acc, err := m.svc.AcceptInvite(ctx, req.Token, me.Email)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(acc)
}

func (m *Module) memberTeam(ctx context.Context, teamID string) (*engine.Team, error) {
	team, err := m.svc.Team(ctx, teamID)
	if err != nil {
		return nil, err
	}
	acc, err := m.svc.Account(ctx, caller(ctx))
	if err != nil {
		return nil, err
	}
	if acc.TeamID != team.ID && team.AdminID != acc.ID {
		return nil, engine.ErrNotInTeam
	}
	return team, nil
}

func (m *Module) adminTeam(ctx context.Context, teamID string) (*engine.Team, error) {
	team, err := m.svc.Team(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.AdminID != caller(ctx) {
		return nil, engine.ErrNotTeamAdmin
	}
	return team, nil
}

func (m *Module) acceptURL(inv *engine.Invite) string {
	q := url.Values{}
	q.Set("token", inv.Token)
	q.Set("email", inv.Email)
	return strings.TrimRight(m.cfg.BaseURL, "/") + "/invites/accept?" + q.Encode()
}

// sendInvite emails the invite. Delivery failures are logged and reported
// in the response; the invite itself stays valid.
func (m *Module) sendInvite(ctx context.Context, team *engine.Team, inv *engine.Invite, acceptURL string) bool {
	if m.mailer == nil {
		return false
	}

	adminName := ""
	if admin, err := m.svc.Account(ctx, team.AdminID); err == nil {
		adminName = admin.Name
	}

	body, err := templates.Render(ctx, templates.TeamInvite(templates.TeamInviteData{
		TeamName:  team.Name,
		AdminName: adminName,
		AcceptURL: acceptURL,
		ExpiresAt: inv.ExpiresAt,
	}))
	if err == nil {
		err = m.mailer.SendEmail(ctx, email.SendEmailParams{
			SendTo:   inv.Email,
			Subject:  m.subject(ctx, team.Name),
			BodyHTML: body,
			Tag:      "team-invite",
		})
	}
	if err != nil {
		m.log.WarnContext(ctx, "failed to send team invite",
			logger.TeamID(team.ID),
			logger.Event("team_invite_email"),
			logger.Error(err),
		)
		return false
	}
	return true
}

func (m *Module) subject(ctx context.Context, teamName string) string {
	const key = "email.team_invite.subject"
	if m.translator == nil {
		return teamName
	}
	lang := i18n.GetLocale(ctx)
	if lang == "" {
		lang = m.translator.Default()
	}
	return m.translator.T(lang, key, "team", teamName)
}
