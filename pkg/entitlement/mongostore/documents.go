package mongostore

import (
	"time"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

type accountDoc struct {
	ID             string     `bson:"_id"`
	Name           string     `bson:"name"`
	Email          string     `bson:"email"`
	PasswordHash   string     `bson:"password_hash"`
	IsAdmin        bool       `bson:"is_admin"`
	PlanID         string     `bson:"plan_id"`
	UsageCount     int64      `bson:"usage_count"`
	ExpiresAt      *time.Time `bson:"expires_at,omitempty"`
	IsActive       bool       `bson:"is_active"`
	TeamID         string     `bson:"team_id,omitempty"`
	SubscriptionID string     `bson:"subscription_id,omitempty"`
	CustomerID     string     `bson:"customer_id,omitempty"`
	Version        int64      `bson:"version"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func toAccountDoc(a *entitlement.Account) accountDoc {
	return accountDoc{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		PasswordHash:   a.PasswordHash,
		IsAdmin:        a.IsAdmin,
		PlanID:         string(a.PlanID),
		UsageCount:     a.UsageCount,
		ExpiresAt:      a.ExpiresAt,
		IsActive:       a.IsActive,
		TeamID:         a.TeamID,
		SubscriptionID: a.SubscriptionID,
		CustomerID:     a.CustomerID,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (d accountDoc) toAccount() *entitlement.Account {
	return &entitlement.Account{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		IsAdmin:        d.IsAdmin,
		PlanID:         entitlement.PlanID(d.PlanID),
		UsageCount:     d.UsageCount,
		ExpiresAt:      d.ExpiresAt,
		IsActive:       d.IsActive,
		TeamID:         d.TeamID,
		SubscriptionID: d.SubscriptionID,
		CustomerID:     d.CustomerID,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type teamDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	AdminID     string    `bson:"admin_id"`
	MemberLimit int       `bson:"member_limit"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toTeamDoc(t *entitlement.Team) teamDoc {
	return teamDoc{ID: t.ID, Name: t.Name, AdminID: t.AdminID, MemberLimit: t.MemberLimit, CreatedAt: t.CreatedAt}
}

func (d teamDoc) toTeam() *entitlement.Team {
	return &entitlement.Team{ID: d.ID, Name: d.Name, AdminID: d.AdminID, MemberLimit: d.MemberLimit, CreatedAt: d.CreatedAt}
}

// inviteDoc is keyed by token so the single-use claim is a delete by _id.
type inviteDoc struct {
	Token     string    `bson:"_id"`
	ID        string    `bson:"invite_id"`
	TeamID    string    `bson:"team_id"`
	Email     string    `bson:"email"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

func toInviteDoc(i *entitlement.Invite) inviteDoc {
	return inviteDoc{Token: i.Token, ID: i.ID, TeamID: i.TeamID, Email: i.Email, ExpiresAt: i.ExpiresAt, CreatedAt: i.CreatedAt}
}

func (d inviteDoc) toInvite() *entitlement.Invite {
	return &entitlement.Invite{ID: d.ID, TeamID: d.TeamID, Email: d.Email, Token: d.Token, ExpiresAt: d.ExpiresAt, CreatedAt: d.CreatedAt}
}
