// Package mongostore implements entitlement.Store on MongoDB.
//
// Accounts carry a version field; every update is a ReplaceOne filtered on
// {_id, version}, so a concurrent writer makes the match count zero and the
// engine retries.
package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

const (
	accountsCollection = "accounts"
	teamsCollection    = "teams"
	invitesCollection  = "invites"
)

// Store is a MongoDB-backed entitlement.Store.
type Store struct {
	accounts *mongo.Collection
	teams    *mongo.Collection
	invites  *mongo.Collection
}

var _ entitlement.Store = (*Store)(nil)

// New binds the store to db.
func New(db *mongo.Database) *Store {
	return &Store{
		accounts: db.Collection(accountsCollection),
		teams:    db.Collection(teamsCollection),
		invites:  db.Collection(invitesCollection),
	}
}

// EnsureIndexes creates the lookup indexes the store relies on. Safe to call
// on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "team_id", Value: 1}}},
		{Keys: bson.D{{Key: "subscription_id", Value: 1}}},
	}); err != nil {
		return errors.Join(ErrIndexCreation, err)
	}
	if _, err := s.invites.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "email", Value: 1}},
	}); err != nil {
		return errors.Join(ErrIndexCreation, err)
	}
	return nil
}

// CreateAccount inserts the document at version 1. The unique email index
// turns a duplicate into entitlement.ErrEmailTaken.
func (s *Store) CreateAccount(ctx context.Context, acc *entitlement.Account) error {
	doc := toAccountDoc(acc)
	doc.Version = 1
	if _, err := s.accounts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entitlement.ErrEmailTaken
		}
		return err
	}
	acc.Version = 1
	return nil
}

// GetAccount loads an account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (*entitlement.Account, error) {
	return s.findAccount(ctx, bson.D{{Key: "_id", Value: id}})
}

// GetAccountByEmail loads an account by its normalized email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*entitlement.Account, error) {
	return s.findAccount(ctx, bson.D{{Key: "email", Value: email}})
}

// GetAccountBySubscription loads the holder of a recurring subscription.
func (s *Store) GetAccountBySubscription(ctx context.Context, subscriptionID string) (*entitlement.Account, error) {
	return s.findAccount(ctx, bson.D{{Key: "subscription_id", Value: subscriptionID}})
}

// UpdateAccount replaces the document filtered on {_id, version} and bumps
// acc.Version. A zero match count is resolved into
// entitlement.ErrAccountNotFound or entitlement.ErrConcurrencyConflict.
func (s *Store) UpdateAccount(ctx context.Context, acc *entitlement.Account) error {
	doc := toAccountDoc(acc)
	doc.Version = acc.Version + 1

	res, err := s.accounts.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: acc.ID}, {Key: "version", Value: acc.Version}},
		doc,
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entitlement.ErrEmailTaken
		}
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.accounts.CountDocuments(ctx, bson.D{{Key: "_id", Value: acc.ID}})
		if err != nil {
			return err
		}
		if n == 0 {
			return entitlement.ErrAccountNotFound
		}
		return entitlement.ErrConcurrencyConflict
	}
	acc.Version = doc.Version
	return nil
}

// ListAccounts returns every account sorted by created_at.
func (s *Store) ListAccounts(ctx context.Context) ([]*entitlement.Account, error) {
	return s.listAccounts(ctx, bson.D{})
}

// CountTeamMembers counts the documents referencing teamID.
func (s *Store) CountTeamMembers(ctx context.Context, teamID string) (int, error) {
	n, err := s.accounts.CountDocuments(ctx, bson.D{{Key: "team_id", Value: teamID}})
	return int(n), err
}

// ListTeamMembers returns the accounts referencing teamID, oldest first.
func (s *Store) ListTeamMembers(ctx context.Context, teamID string) ([]*entitlement.Account, error) {
	return s.listAccounts(ctx, bson.D{{Key: "team_id", Value: teamID}})
}

// AccountStats aggregates the admin counters in one pipeline.
func (s *Store) AccountStats(ctx context.Context) (entitlement.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "premium", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$ne", Value: bson.A{"$plan_id", string(entitlement.PlanFree)}}}, 1, 0,
			}}}}}},
			{Key: "generations", Value: bson.D{{Key: "$sum", Value: "$usage_count"}}},
		}}},
	}

	cur, err := s.accounts.Aggregate(ctx, pipeline)
	if err != nil {
		return entitlement.Stats{}, err
	}
	var rows []struct {
		Total       int64 `bson:"total"`
		Premium     int64 `bson:"premium"`
		Generations int64 `bson:"generations"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return entitlement.Stats{}, err
	}
	if len(rows) == 0 {
		return entitlement.Stats{}, nil
	}
	return entitlement.Stats{
		TotalAccounts:    rows[0].Total,
		PremiumAccounts:  rows[0].Premium,
		TotalGenerations: rows[0].Generations,
	}, nil
}

// CreateTeam inserts a team document.
func (s *Store) CreateTeam(ctx context.Context, team *entitlement.Team) error {
	_, err := s.teams.InsertOne(ctx, toTeamDoc(team))
	return err
}

// GetTeam loads a team or returns entitlement.ErrTeamNotFound.
func (s *Store) GetTeam(ctx context.Context, id string) (*entitlement.Team, error) {
	var doc teamDoc
	if err := s.teams.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlement.ErrTeamNotFound
		}
		return nil, err
	}
	return doc.toTeam(), nil
}

// CreateInvite inserts an invite with the token as _id.
func (s *Store) CreateInvite(ctx context.Context, inv *entitlement.Invite) error {
	_, err := s.invites.InsertOne(ctx, toInviteDoc(inv))
	return err
}

// GetInvite loads an invite by token.
func (s *Store) GetInvite(ctx context.Context, token string) (*entitlement.Invite, error) {
	return s.findInvite(ctx, bson.D{{Key: "_id", Value: token}})
}

// FindInvite loads an invite only when both token and email match.
func (s *Store) FindInvite(ctx context.Context, token, email string) (*entitlement.Invite, error) {
	return s.findInvite(ctx, bson.D{{Key: "_id", Value: token}, {Key: "email", Value: email}})
}

// DeleteInvite removes an invite by token. A zero delete count means
// someone else claimed it first and returns entitlement.ErrInviteNotFound.
func (s *Store) DeleteInvite(ctx context.Context, token string) error {
	res, err := s.invites.DeleteOne(ctx, bson.D{{Key: "_id", Value: token}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return entitlement.ErrInviteNotFound
	}
	return nil
}

func (s *Store) findAccount(ctx context.Context, filter bson.D) (*entitlement.Account, error) {
	var doc accountDoc
	if err := s.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlement.ErrAccountNotFound
		}
		return nil, err
	}
	return doc.toAccount(), nil
}

func (s *Store) listAccounts(ctx context.Context, filter bson.D) ([]*entitlement.Account, error) {
	cur, err := s.accounts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*entitlement.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAccount())
	}
	return out, nil
}

func (s *Store) findInvite(ctx context.Context, filter bson.D) (*entitlement.Invite, error) {
	var doc inviteDoc
	if err := s.invites.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlement.ErrInviteNotFound
		}
		return nil, err
	}
	return doc.toInvite(), nil
}
