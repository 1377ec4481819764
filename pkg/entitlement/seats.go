package entitlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/lessonkit/pkg/logger"
	"github.com/dmitrymomot/lessonkit/pkg/token"
)

// inviteTokenBytes is the entropy of an invite token before hex encoding.
const inviteTokenBytes = 16

// CreateTeam opens a team administered by adminID. The admin must hold the
// team plan and takes the first seat.
func (s *service) CreateTeam(ctx context.Context, adminID, name string) (*Team, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	admin, err := s.Account(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin.InTeam() {
		return nil, ErrAlreadyInTeam
	}
	if admin.PlanID != PlanSchool {
		return nil, ErrPlanNotEligible
	}

	plan, err := s.catalog.Lookup(PlanSchool)
	if err != nil {
		return nil, err
	}

	team := &Team{
		ID:          uuid.NewString(),
		Name:        name,
		AdminID:     admin.ID,
		MemberLimit: plan.SeatLimit(),
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, s.fail(ctx, "create_team", err, logger.AccountID(adminID))
	}

	_, _, err = s.mutate(ctx, "create_team", adminID, func(acc *Account, _ time.Time) error {
		if acc.InTeam() {
			return ErrAlreadyInTeam
		}
		if acc.PlanID != PlanSchool {
			return ErrPlanNotEligible
		}
		acc.TeamID = team.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// Team returns a team by id.
func (s *service) Team(ctx context.Context, teamID string) (*Team, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, s.fail(ctx, "get_team", err, logger.TeamID(teamID))
	}
	return team, nil
}

// ListMembers returns the sanitized accounts holding a seat in the team.
func (s *service) ListMembers(ctx context.Context, teamID string) ([]*Account, error) {
	if _, err := s.Team(ctx, teamID); err != nil {
		return nil, err
	}
	members, err := s.activeMembers(ctx, "list_members", teamID)
	if err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(members))
	for _, m := range members {
		out = append(out, m.sanitized())
	}
	return out, nil
}

// CreateInvite issues a 24h single-use invite for email to join teamID.
func (s *service) CreateInvite(ctx context.Context, teamID, email string) (*Invite, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	team, err := s.Team(ctx, teamID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		acc, err := s.Account(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		if acc.TeamID == team.ID {
			return nil, ErrAlreadyMember
		}
	case errors.Is(err, ErrAccountNotFound):
	default:
		return nil, s.fail(ctx, "create_invite", err, logger.TeamID(teamID))
	}

	if err := s.checkSeat(ctx, "create_invite", team); err != nil {
		return nil, err
	}

	tok, err := token.Random(inviteTokenBytes)
	if err != nil {
		return nil, s.fail(ctx, "create_invite", err, logger.TeamID(teamID))
	}

	now := s.now()
	inv := &Invite{
		ID:        uuid.NewString(),
		TeamID:    team.ID,
		Email:     email,
		Token:     tok,
		ExpiresAt: now.Add(s.inviteTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateInvite(ctx, inv); err != nil {
		return nil, s.fail(ctx, "create_invite", err, logger.TeamID(teamID))
	}
	return inv, nil
}

// AcceptInvite redeems an invite for the account registered under email.
// The token alone is not enough; the email has to match too. The seat check
// and the join run under the team lock, and the invite is consumed only after
// the account has joined, so a failed join leaves it usable for a retry.
func (s *service) AcceptInvite(ctx context.Context, tok, email string) (*Account, error) {
	email = NormalizeEmail(email)
	tok = strings.TrimSpace(tok)
	if tok == "" || email == "" {
		return nil, ErrInviteNotFound
	}

	inv, err := s.findInvite(ctx, tok, email)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, teamLockKey(inv.TeamID))
	if err != nil {
		return nil, s.fail(ctx, "accept_invite", err, logger.TeamID(inv.TeamID))
	}
	defer unlock()

	// Another accept may have consumed it while we waited for the lock.
	if inv, err = s.findInvite(ctx, tok, email); err != nil {
		return nil, err
	}

	run := &inviteRun{invite: inv, now: s.now()}
	state, err := s.invites.Fire(ctx, InviteCreated, inviteAccept, run)
	if err != nil {
		return nil, err
	}
	if state == InviteExpired {
		return nil, ErrInviteExpired
	}
	return run.account, nil
}

// RevokeInvite withdraws a pending invite of the team.
func (s *service) RevokeInvite(ctx context.Context, teamID, tok string) error {
	team, err := s.Team(ctx, teamID)
	if err != nil {
		return err
	}
	inv, err := s.findInviteByToken(ctx, team.ID, tok)
	if err != nil {
		return err
	}
	_, err = s.invites.Fire(ctx, InviteCreated, inviteRevoke, &inviteRun{invite: inv, now: s.now()})
	return err
}

// RemoveMember releases the seat of accountID and reverts it to Free with a
// fresh usage counter.
func (s *service) RemoveMember(ctx context.Context, accountID, teamID string) (*Account, error) {
	acc, _, err := s.mutate(ctx, "remove_member", accountID, func(acc *Account, _ time.Time) error {
		if acc.TeamID != teamID || teamID == "" {
			return ErrNotInTeam
		}
		acc.TeamID = ""
		acc.PlanID = PlanFree
		acc.UsageCount = 0
		acc.ExpiresAt = nil
		acc.IsActive = true
		return nil
	})
	return acc, err
}

func (s *service) findInviteByToken(ctx context.Context, teamID, tok string) (*Invite, error) {
	inv, err := s.store.GetInvite(ctx, strings.TrimSpace(tok))
	if err != nil {
		return nil, s.fail(ctx, "revoke_invite", err, logger.TeamID(teamID))
	}
	if inv.TeamID != teamID || !token.Equal(inv.Token, tok) {
		return nil, ErrInviteNotFound
	}
	return inv, nil
}

func (s *service) findInvite(ctx context.Context, tok, email string) (*Invite, error) {
	inv, err := s.store.FindInvite(ctx, tok, email)
	if err != nil {
		return nil, s.fail(ctx, "accept_invite", err)
	}
	if !token.Equal(inv.Token, tok) || inv.Email != email {
		return nil, ErrInviteNotFound
	}
	return inv, nil
}

// checkSeat fails when the team has no free seat. The raw count is enough
// while it is under the limit; at the limit, seats held under a lapsed grant
// are reconciled away before deciding.
func (s *service) checkSeat(ctx context.Context, op string, team *Team) error {
	count, err := s.store.CountTeamMembers(ctx, team.ID)
	if err != nil {
		return s.fail(ctx, op, err, logger.TeamID(team.ID))
	}
	if count < team.MemberLimit {
		return nil
	}

	members, err := s.activeMembers(ctx, op, team.ID)
	if err != nil {
		return err
	}
	if len(members) >= team.MemberLimit {
		return ErrSeatLimitReached
	}
	return nil
}

// activeMembers lists the seat holders of a team. Records that would lose
// their seat to the sweep are reconciled and left out.
func (s *service) activeMembers(ctx context.Context, op, teamID string) ([]*Account, error) {
	members, err := s.store.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, s.fail(ctx, op, err, logger.TeamID(teamID))
	}

	now := s.now()
	out := make([]*Account, 0, len(members))
	for _, m := range members {
		if !holdsSeat(m, now) {
			acc, _, err := s.mutate(ctx, op, m.ID, nil)
			if err != nil {
				return nil, err
			}
			if acc.TeamID != teamID {
				continue
			}
			m = acc
		}
		out = append(out, m)
	}
	return out, nil
}

func holdsSeat(acc *Account, now time.Time) bool {
	c := acc.Clone()
	Sweep(c, now)
	return c.InTeam() && c.PlanID == PlanSchool
}
