package groups_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	groupsfeature "github.com/guildtools/partyhub/internal/app/features/groups"
	"github.com/guildtools/partyhub/internal/app/system/auth"
	"github.com/guildtools/partyhub/internal/app/system/party"
	"github.com/guildtools/partyhub/internal/domain/models"
	"github.com/guildtools/partyhub/internal/testutil"
	"go.uber.org/zap"
)

// env bundles a fully wired router plus its backing store and a token
// manager so tests can exercise the real middleware chain.
type env struct {
	store  *testutil.MemStore
	rec    *testutil.EventRecorder
	tokens *auth.TokenManager
	router http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := testutil.NewMemStore()
	rec := testutil.NewEventRecorder()
	logger := zap.NewNop()

	alloc := party.NewAllocator(store, rec, logger)
	life := party.NewLifecycle(store, rec, rec, logger)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	r := chi.NewRouter()
	r.Use(tokens.Authenticate)
	r.Mount("/api/groups", groupsfeature.Routes(groupsfeature.NewHandler(store, alloc, life, logger)))

	return &env{store: store, rec: rec, tokens: tokens, router: r}
}

func (e *env) request(t *testing.T, method, target string, body any, as *models.User) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if as != nil {
		token, err := e.tokens.Issue(*as)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeGroup(t *testing.T, rec *httptest.ResponseRecorder) models.Group {
	t.Helper()
	var g models.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatalf("decode group: %v (body: %s)", err, rec.Body.String())
	}
	return g
}

func leader() *models.User {
	u := models.User{Nick: "leader", Role: "member"}
	return &u
}

func TestCreateGroup(t *testing.T) {
	e := newEnv(t)

	rec := e.request(t, "POST", "/api/groups", map[string]any{
		"name":        "Avalon Roads",
		"description": "bring food",
		"slots": []map[string]any{
			{"role": "tank"},
			{"role": "healer"},
		},
	}, leader())

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	g := decodeGroup(t, rec)
	if g.CreatorNick != "leader" {
		t.Errorf("creator: got %q", g.CreatorNick)
	}
	if len(g.Slots) != 2 {
		t.Errorf("slots: got %d, want 2", len(g.Slots))
	}
}

func TestCreateGroup_FromTemplate(t *testing.T) {
	e := newEnv(t)

	rec := e.request(t, "POST", "/api/groups", map[string]any{
		"name": "Avalon Roads",
		"template": map[string]any{
			"name": "roads-5",
			"roles": []map[string]any{
				{"name": "tank", "required": 1, "max": 1},
				{"name": "healer", "required": 1, "max": 2, "icon": "healer.png"},
			},
		},
	}, leader())

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	g := decodeGroup(t, rec)
	if len(g.Slots) != 2 {
		t.Fatalf("slots: got %d, want 2", len(g.Slots))
	}
	if g.Slots[0].Role != "tank" || g.Slots[1].Role != "healer" {
		t.Errorf("roles: got %+v", g.Slots)
	}
	if g.Template == nil || len(g.Template.Roles) != 2 {
		t.Fatalf("template: got %+v", g.Template)
	}
	if r := g.Template.Roles[1]; r.Required != 1 || r.Max != 2 || r.Icon != "healer.png" {
		t.Errorf("template role: got %+v", r)
	}
}

func TestCreateGroup_RequiresAuth(t *testing.T) {
	e := newEnv(t)

	rec := e.request(t, "POST", "/api/groups", map[string]any{"name": "x"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestListGroups_Public(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	if err := e.store.Insert(ctx, testutil.NewGroup("raid", "leader", "tank")); err != nil {
		t.Fatal(err)
	}

	rec := e.request(t, "GET", "/api/groups", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var gs []models.Group
	if err := json.Unmarshal(rec.Body.Bytes(), &gs); err != nil {
		t.Fatal(err)
	}
	if len(gs) != 1 {
		t.Errorf("groups: got %d, want 1", len(gs))
	}
}

func TestJoin_Conflict409CarriesExistingGroup(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	first := testutil.NewGroup("first", "a", "tank")
	first = testutil.Seat(first, 0, "bob")
	second := testutil.NewGroup("second", "b", "tank")
	for _, g := range []models.Group{first, second} {
		if err := e.store.Insert(ctx, g); err != nil {
			t.Fatal(err)
		}
	}

	bob := models.User{Nick: "bob"}
	rec := e.request(t, "POST", "/api/groups/"+second.ID.Hex()+"/members", nil, &bob)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error         string       `json:"error"`
		ExistingGroup models.Group `json:"existingGroup"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ExistingGroup.ID != first.ID {
		t.Errorf("existingGroup: got %s, want %s", resp.ExistingGroup.ID.Hex(), first.ID.Hex())
	}
}

func TestJoinAndLeaveFlow(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	g := testutil.NewGroup("raid", "leader", "tank", "healer")
	if err := e.store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	bob := models.User{Nick: "bob"}
	rec := e.request(t, "POST", "/api/groups/"+g.ID.Hex()+"/members", nil, &bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("join: got %d, body %s", rec.Code, rec.Body.String())
	}
	joined := decodeGroup(t, rec)
	if joined.Slots[0].User == nil || joined.Slots[0].User.Nick != "bob" {
		t.Fatalf("bob should hold slot 0: %+v", joined.Slots)
	}

	rec = e.request(t, "DELETE", "/api/groups/"+g.ID.Hex()+"/members/bob", nil, &bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("leave: got %d, body %s", rec.Code, rec.Body.String())
	}
	left := decodeGroup(t, rec)
	if left.Slots[0].User != nil {
		t.Errorf("slot should be open after leave")
	}
}

func TestLeave_OtherUserForbidden(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	g := testutil.NewGroup("raid", "leader", "tank")
	g = testutil.Seat(g, 0, "bob")
	if err := e.store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	mallory := models.User{Nick: "mallory"}
	rec := e.request(t, "DELETE", "/api/groups/"+g.ID.Hex()+"/members/bob", nil, &mallory)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestUpdate_OnlyCreatorOrAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	g := testutil.NewGroup("raid", "leader", "tank")
	if err := e.store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	body := map[string]any{"name": "renamed"}

	mallory := models.User{Nick: "mallory"}
	rec := e.request(t, "PUT", "/api/groups/"+g.ID.Hex(), body, &mallory)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger: got %d, want 403", rec.Code)
	}

	rec = e.request(t, "PUT", "/api/groups/"+g.ID.Hex(), body, leader())
	if rec.Code != http.StatusOK {
		t.Fatalf("creator: got %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeGroup(t, rec); got.Name != "renamed" {
		t.Errorf("name: got %q", got.Name)
	}

	admin := models.User{Nick: "root", Role: "admin"}
	rec = e.request(t, "DELETE", "/api/groups/"+g.ID.Hex(), nil, &admin)
	if rec.Code != http.StatusNoContent {
		t.Errorf("admin delete: got %d", rec.Code)
	}
}

func TestGetGroup_NotFound(t *testing.T) {
	e := newEnv(t)

	rec := e.request(t, "GET", "/api/groups/ffffffffffffffffffffffff", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}

	rec = e.request(t, "GET", "/api/groups/not-an-id", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id: got %d, want 400", rec.Code)
	}
}

func TestActiveByNick(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	g := testutil.NewGroup("raid", "leader", "tank")
	g = testutil.Seat(g, 0, "bob")
	if err := e.store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	rec := e.request(t, "GET", "/api/groups/active/bob", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := decodeGroup(t, rec); got.ID != g.ID {
		t.Errorf("group: got %s, want %s", got.ID.Hex(), g.ID.Hex())
	}

	rec = e.request(t, "GET", "/api/groups/active/nobody", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no active group: got %d, want 404", rec.Code)
	}
}

func TestJoinFull_409(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	g := testutil.NewGroup("duo", "leader", "tank")
	g = testutil.Seat(g, 0, "alice")
	if err := e.store.Insert(ctx, g); err != nil {
		t.Fatal(err)
	}

	bob := models.User{Nick: "bob"}
	rec := e.request(t, "POST", "/api/groups/"+g.ID.Hex()+"/members", nil, &bob)
	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}
