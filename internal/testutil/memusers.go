package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	userstore "github.com/guildtools/partyhub/internal/app/store/users"
	"github.com/guildtools/partyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemUsers is an in-memory user store mirroring the Mongo one's contract,
// including the case-insensitive nick uniqueness.
type MemUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func NewMemUsers() *MemUsers {
	return &MemUsers{users: make(map[primitive.ObjectID]models.User)}
}

func (s *MemUsers) Create(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folded := text.Fold(u.Nick)
	for _, existing := range s.users {
		if existing.NickCI == folded {
			return models.User{}, userstore.ErrDuplicateNick
		}
	}

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.NickCI = folded
	if u.Role == "" {
		u.Role = "member"
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *MemUsers) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func (s *MemUsers) GetByNick(ctx context.Context, nick string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	folded := text.Fold(nick)
	for _, u := range s.users {
		if u.NickCI == folded {
			return u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}
