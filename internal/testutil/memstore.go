package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemStore is an in-memory group store with the same contract as the Mongo
// one, including mongo.ErrNoDocuments for absent documents and the revision
// guard on ReplaceIf. Safe for concurrent use, which lets tests race real
// goroutines against it.
type MemStore struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]models.Group
}

func NewMemStore() *MemStore {
	return &MemStore{groups: make(map[primitive.ObjectID]models.Group)}
}

// cloneGroup deep-copies the slot slice so callers cannot alias stored state.
func cloneGroup(g models.Group) models.Group {
	slots := make([]models.Slot, len(g.Slots))
	for i, s := range g.Slots {
		slots[i] = models.Slot{Role: s.Role}
		if s.User != nil {
			u := *s.User
			slots[i].User = &u
		}
	}
	g.Slots = slots
	if g.Template != nil {
		t := *g.Template
		t.Roles = append([]models.TemplateRole(nil), g.Template.Roles...)
		g.Template = &t
	}
	return g
}

func (s *MemStore) FindAll(ctx context.Context) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, cloneGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return models.Group{}, mongo.ErrNoDocuments
	}
	return cloneGroup(g), nil
}

func (s *MemStore) FindActiveByMember(ctx context.Context, nick string, exclude primitive.ObjectID) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, g := range s.groups {
		if id == exclude || g.Status != models.StatusActive {
			continue
		}
		for _, slot := range g.Slots {
			if slot.User != nil && slot.User.Nick == nick {
				return cloneGroup(g), nil
			}
		}
	}
	return models.Group{}, mongo.ErrNoDocuments
}

func (s *MemStore) Insert(ctx context.Context, g models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = cloneGroup(g)
	return nil
}

func (s *MemStore) ReplaceIf(ctx context.Context, g models.Group, expected int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.groups[g.ID]
	if !ok || cur.Revision != expected {
		return false, nil
	}
	s.groups[g.ID] = cloneGroup(g)
	return true, nil
}

func (s *MemStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return 0, nil
	}
	delete(s.groups, id)
	return 1, nil
}

func (s *MemStore) FindAndDeleteExpired(ctx context.Context, cutoff time.Time) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Group
	for id, g := range s.groups {
		if g.CreatedAt.Before(cutoff) {
			out = append(out, cloneGroup(g))
			delete(s.groups, id)
		}
	}
	return out, nil
}
