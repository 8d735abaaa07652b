package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/guildtools/partyhub/internal/app/store/users"
	"github.com/guildtools/partyhub/internal/app/system/indexes"
	"github.com/guildtools/partyhub/internal/domain/models"
	"github.com/guildtools/partyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateAndLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := userstore.New(db)

	u, err := store.Create(ctx, models.User{Nick: "Bob", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID.IsZero() {
		t.Error("ID should be assigned")
	}
	if u.Role != "member" {
		t.Errorf("default role: got %q, want member", u.Role)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Nick != "Bob" {
		t.Errorf("nick: got %q", got.Nick)
	}

	// Lookup folds case.
	got, err = store.GetByNick(ctx, "bOb")
	if err != nil {
		t.Fatalf("GetByNick: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got %s, want %s", got.ID.Hex(), u.ID.Hex())
	}

	_, err = store.GetByNick(ctx, "nobody")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing user: got %v, want ErrNoDocuments", err)
	}
}

func TestCreate_DuplicateNick(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	// The duplicate is caught by the unique nick_ci index.
	if err := indexes.EnsureAll(ctx, db, time.Hour); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	store := userstore.New(db)
	if _, err := store.Create(ctx, models.User{Nick: "bob", PasswordHash: "x"}); err != nil {
		t.Fatal(err)
	}

	_, err := store.Create(ctx, models.User{Nick: "BOB", PasswordHash: "x"})
	if !errors.Is(err, userstore.ErrDuplicateNick) {
		t.Errorf("got %v, want ErrDuplicateNick", err)
	}
}
