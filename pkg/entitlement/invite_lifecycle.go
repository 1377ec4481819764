package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/lessonkit/pkg/logger"
	"github.com/dmitrymomot/lessonkit/pkg/statemachine"
)

// InviteState is a step in the life of an invite. Only InviteCreated is ever
// stored: reaching any other state deletes the record.
type InviteState string

const (
	InviteCreated  InviteState = "created"
	InviteAccepted InviteState = "accepted"
	InviteExpired  InviteState = "expired"
	InviteRevoked  InviteState = "revoked"
)

type inviteEvent string

const (
	inviteAccept inviteEvent = "accept"
	inviteRevoke inviteEvent = "revoke"
)

// inviteRun is the input and output of one invite transition.
type inviteRun struct {
	invite  *Invite
	now     time.Time
	account *Account
}

// inviteLifecycle wires the invite transitions to the engine.
//
//	created --accept--> expired   (ttl elapsed; invite deleted)
//	created --accept--> accepted  (seat taken, then invite deleted)
//	created --revoke--> revoked   (invite deleted)
//
// An accept whose join fails stays in created, so the invite can be retried.
func (s *service) inviteLifecycle() *statemachine.Machine[InviteState, inviteEvent, *inviteRun] {
	return statemachine.NewBuilder[InviteState, inviteEvent, *inviteRun]().
		From(InviteCreated).When(inviteAccept).To(InviteExpired).
		WithGuard(inviteLapsed).
		WithAction(s.consumeInvite).
		Add().
		From(InviteCreated).When(inviteAccept).To(InviteAccepted).
		WithAction(s.joinTeam).
		WithAction(s.consumeInvite).
		Add().
		From(InviteCreated).When(inviteRevoke).To(InviteRevoked).
		WithAction(s.revokeInvite).
		Add().
		OnTransition(s.logInviteTransition).
		MustBuild()
}

func inviteLapsed(_ context.Context, run *inviteRun) bool {
	return run.invite.Expired(run.now)
}

// joinTeam seats the invitee. Callers hold the team lock, so the seat count
// cannot change between the check and the write.
func (s *service) joinTeam(ctx context.Context, run *inviteRun) error {
	inv := run.invite

	found, err := s.store.GetAccountByEmail(ctx, inv.Email)
	if err != nil {
		return s.fail(ctx, "accept_invite", err, logger.TeamID(inv.TeamID))
	}
	// Sweep first: a lapsed grant releases the seat of a previous team.
	acc, err := s.Account(ctx, found.ID)
	if err != nil {
		return err
	}
	if acc.InTeam() && acc.TeamID != inv.TeamID {
		return ErrAlreadyInTeam
	}

	team, err := s.Team(ctx, inv.TeamID)
	if err != nil {
		return err
	}
	if acc.TeamID != team.ID {
		if err := s.checkSeat(ctx, "accept_invite", team); err != nil {
			return err
		}
	}

	updated, _, err := s.mutate(ctx, "accept_invite", acc.ID, func(acc *Account, _ time.Time) error {
		if acc.InTeam() && acc.TeamID != team.ID {
			return ErrAlreadyInTeam
		}
		acc.TeamID = team.ID
		acc.PlanID = PlanSchool
		acc.ExpiresAt = nil
		acc.IsActive = true
		return nil
	})
	if err != nil {
		return err
	}
	run.account = updated
	return nil
}

// consumeInvite deletes an invite that reached a terminal state on accept.
// Someone else deleting it first is fine: it is gone either way.
func (s *service) consumeInvite(ctx context.Context, run *inviteRun) error {
	err := s.store.DeleteInvite(ctx, run.invite.Token)
	if err == nil || errors.Is(err, ErrInviteNotFound) {
		return nil
	}
	return s.fail(ctx, "accept_invite", err,
		logger.TeamID(run.invite.TeamID),
		slog.String("invite_id", run.invite.ID),
	)
}

func (s *service) revokeInvite(ctx context.Context, run *inviteRun) error {
	if err := s.store.DeleteInvite(ctx, run.invite.Token); err != nil {
		return s.fail(ctx, "revoke_invite", err, logger.TeamID(run.invite.TeamID))
	}
	return nil
}

func (s *service) logInviteTransition(ctx context.Context, from, to InviteState, ev inviteEvent, run *inviteRun) {
	s.log.LogAttrs(ctx, slog.LevelDebug, "invite transition",
		logger.TeamID(run.invite.TeamID),
		logger.Event(string(ev)),
		slog.String("invite_id", run.invite.ID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}
