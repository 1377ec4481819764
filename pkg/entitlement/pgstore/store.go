// Package pgstore implements entitlement.Store on PostgreSQL via pgx.
//
// Run pg.Migrate with migrations.FS before use. Account updates are guarded
// by "WHERE id = $1 AND version = $2"; zero affected rows means either the
// account is gone or another writer bumped the version first.
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/pg"
)

const accountColumns = `id, name, email, password_hash, is_admin, plan_id, usage_count, expires_at,
	is_active, team_id, subscription_id, customer_id, version, created_at, updated_at`

// Store is a PostgreSQL-backed entitlement.Store.
type Store struct {
	db *pgxpool.Pool
}

var _ entitlement.Store = (*Store)(nil)

// New wraps a pool whose schema was migrated with migrations.FS.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// CreateAccount inserts the record at version 1. The unique email index turns
// a duplicate into entitlement.ErrEmailTaken.
func (s *Store) CreateAccount(ctx context.Context, acc *entitlement.Account) error {
	_, err := s.db.Exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $14)`,
		acc.ID, acc.Name, acc.Email, acc.PasswordHash, acc.IsAdmin, string(acc.PlanID), acc.UsageCount,
		acc.ExpiresAt, acc.IsActive, acc.TeamID, acc.SubscriptionID, acc.CustomerID, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return entitlement.ErrEmailTaken
		}
		return err
	}
	acc.Version = 1
	return nil
}

// GetAccount loads an account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (*entitlement.Account, error) {
	return s.queryAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetAccountByEmail loads an account by its normalized email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*entitlement.Account, error) {
	return s.queryAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// GetAccountBySubscription loads the holder of a recurring subscription.
func (s *Store) GetAccountBySubscription(ctx context.Context, subscriptionID string) (*entitlement.Account, error) {
	return s.queryAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE subscription_id = $1 LIMIT 1`, subscriptionID)
}

// UpdateAccount writes acc when its version still matches and bumps
// acc.Version. When no row matches it tells a missing account apart from a
// lost race with a second lookup.
func (s *Store) UpdateAccount(ctx context.Context, acc *entitlement.Account) error {
	tag, err := s.db.Exec(ctx, `UPDATE accounts SET
			name = $3, email = $4, password_hash = $5, is_admin = $6, plan_id = $7, usage_count = $8,
			expires_at = $9, is_active = $10, team_id = $11, subscription_id = $12, customer_id = $13,
			updated_at = $14, version = version + 1
		WHERE id = $1 AND version = $2`,
		acc.ID, acc.Version, acc.Name, acc.Email, acc.PasswordHash, acc.IsAdmin, string(acc.PlanID),
		acc.UsageCount, acc.ExpiresAt, acc.IsActive, acc.TeamID, acc.SubscriptionID, acc.CustomerID, acc.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return entitlement.ErrEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, acc.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return entitlement.ErrAccountNotFound
		}
		return entitlement.ErrConcurrencyConflict
	}
	acc.Version++
	return nil
}

// ListAccounts returns every account ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context) ([]*entitlement.Account, error) {
	return s.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
}

// CountTeamMembers counts the accounts referencing teamID.
func (s *Store) CountTeamMembers(ctx context.Context, teamID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM accounts WHERE team_id = $1`, teamID).Scan(&n)
	return n, err
}

// ListTeamMembers returns the accounts referencing teamID, oldest first.
func (s *Store) ListTeamMembers(ctx context.Context, teamID string) ([]*entitlement.Account, error) {
	return s.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE team_id = $1 ORDER BY created_at, id`, teamID)
}

// AccountStats aggregates the admin counters in a single query.
func (s *Store) AccountStats(ctx context.Context) (entitlement.Stats, error) {
	var st entitlement.Stats
	err := s.db.QueryRow(ctx, `SELECT
			count(*),
			count(*) FILTER (WHERE plan_id <> $1),
			coalesce(sum(usage_count), 0)
		FROM accounts`, string(entitlement.PlanFree),
	).Scan(&st.TotalAccounts, &st.PremiumAccounts, &st.TotalGenerations)
	return st, err
}

// CreateTeam inserts a team.
func (s *Store) CreateTeam(ctx context.Context, team *entitlement.Team) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO teams (id, name, admin_id, member_limit, created_at) VALUES ($1, $2, $3, $4, $5)`,
		team.ID, team.Name, team.AdminID, team.MemberLimit, team.CreatedAt,
	)
	return err
}

// GetTeam loads a team or returns entitlement.ErrTeamNotFound.
func (s *Store) GetTeam(ctx context.Context, id string) (*entitlement.Team, error) {
	var t entitlement.Team
	err := s.db.QueryRow(ctx,
		`SELECT id, name, admin_id, member_limit, created_at FROM teams WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.AdminID, &t.MemberLimit, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, entitlement.ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateInvite inserts an invite keyed by its token.
func (s *Store) CreateInvite(ctx context.Context, inv *entitlement.Invite) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO invites (token, id, team_id, email, expires_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.Token, inv.ID, inv.TeamID, inv.Email, inv.ExpiresAt, inv.CreatedAt,
	)
	return err
}

// GetInvite loads an invite by token.
func (s *Store) GetInvite(ctx context.Context, token string) (*entitlement.Invite, error) {
	return s.queryInvite(ctx, `SELECT token, id, team_id, email, expires_at, created_at FROM invites WHERE token = $1`, token)
}

// FindInvite loads an invite only when both token and email match.
func (s *Store) FindInvite(ctx context.Context, token, email string) (*entitlement.Invite, error) {
	return s.queryInvite(ctx,
		`SELECT token, id, team_id, email, expires_at, created_at FROM invites WHERE token = $1 AND email = $2`,
		token, email,
	)
}

// DeleteInvite removes an invite. Zero affected rows means someone else
// claimed it first and returns entitlement.ErrInviteNotFound.
func (s *Store) DeleteInvite(ctx context.Context, token string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM invites WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return entitlement.ErrInviteNotFound
	}
	return nil
}

func (s *Store) queryAccount(ctx context.Context, query string, args ...any) (*entitlement.Account, error) {
	acc, err := scanAccount(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, entitlement.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]*entitlement.Account, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entitlement.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) queryInvite(ctx context.Context, query string, args ...any) (*entitlement.Invite, error) {
	var inv entitlement.Invite
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&inv.Token, &inv.ID, &inv.TeamID, &inv.Email, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entitlement.ErrInviteNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func scanAccount(row pgx.Row) (*entitlement.Account, error) {
	var (
		acc  entitlement.Account
		plan string
	)
	err := row.Scan(
		&acc.ID, &acc.Name, &acc.Email, &acc.PasswordHash, &acc.IsAdmin, &plan, &acc.UsageCount,
		&acc.ExpiresAt, &acc.IsActive, &acc.TeamID, &acc.SubscriptionID, &acc.CustomerID,
		&acc.Version, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc.PlanID = entitlement.PlanID(plan)
	return &acc, nil
}
