// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists groups in the "groups" collection. It implements
// party.Store; per-document update semantics (the revision guard in
// ReplaceIf) are the only mutual exclusion the engine relies on.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// FindAll returns every group, newest first.
func (s *Store) FindAll(ctx context.Context) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// FindActiveByMember returns an active group with a slot occupied by nick,
// excluding the given id. Pass primitive.NilObjectID to search all groups.
func (s *Store) FindActiveByMember(ctx context.Context, nick string, exclude primitive.ObjectID) (models.Group, error) {
	filter := bson.M{
		"status":          models.StatusActive,
		"slots.user.nick": nick,
	}
	if exclude != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	var g models.Group
	if err := s.c.FindOne(ctx, filter).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) Insert(ctx context.Context, g models.Group) error {
	_, err := s.c.InsertOne(ctx, g)
	return err
}

// ReplaceIf replaces the whole document only when the stored revision still
// equals expected. A false return means a concurrent writer won the race.
func (s *Store) ReplaceIf(ctx context.Context, g models.Group, expected int64) (bool, error) {
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": g.ID, "revision": expected}, g)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Delete removes a group by id. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// FindAndDeleteExpired pops groups created before cutoff one at a time so
// every eviction yields the removed document for broadcasting. The Mongo
// TTL index on created_at is only a backstop; this is the authoritative
// sweep.
func (s *Store) FindAndDeleteExpired(ctx context.Context, cutoff time.Time) ([]models.Group, error) {
	filter := bson.M{"created_at": bson.M{"$lt": cutoff}}
	var out []models.Group
	for {
		var g models.Group
		err := s.c.FindOneAndDelete(ctx, filter).Decode(&g)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, g)
	}
}
