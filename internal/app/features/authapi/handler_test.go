package authapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	authfeature "github.com/guildtools/partyhub/internal/app/features/authapi"
	"github.com/guildtools/partyhub/internal/app/system/auth"
	"github.com/guildtools/partyhub/internal/app/system/ratelimit"
	"github.com/guildtools/partyhub/internal/domain/models"
	"github.com/guildtools/partyhub/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	h := authfeature.NewHandler(testutil.NewMemUsers(), tokens, ratelimit.NewLoginLimiter(), zap.NewNop())

	r := chi.NewRouter()
	r.Use(tokens.Authenticate)
	r.Mount("/api/auth", authfeature.Routes(h))
	return r
}

func post(t *testing.T, router http.Handler, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", target, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func TestRegisterLoginMe(t *testing.T) {
	router := newRouter(t)

	rec := post(t, router, "/api/auth/register", map[string]string{
		"nick":     "bob",
		"password": "hunter22",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: got %d, body %s", rec.Code, rec.Body.String())
	}
	var created session
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Token == "" {
		t.Fatal("register must return a token")
	}
	if created.User.Nick != "bob" {
		t.Errorf("nick: got %q", created.User.Nick)
	}

	rec = post(t, router, "/api/auth/login", map[string]string{
		"nick":     "Bob", // nick lookup is case-insensitive
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got %d, body %s", rec.Code, rec.Body.String())
	}
	var logged session
	if err := json.Unmarshal(rec.Body.Bytes(), &logged); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+logged.Token)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("me: got %d, body %s", rec2.Code, rec2.Body.String())
	}
	var me models.User
	if err := json.Unmarshal(rec2.Body.Bytes(), &me); err != nil {
		t.Fatal(err)
	}
	if me.Nick != "bob" {
		t.Errorf("me nick: got %q", me.Nick)
	}
}

func TestRegister_DuplicateNick(t *testing.T) {
	router := newRouter(t)

	body := map[string]string{"nick": "bob", "password": "hunter22"}
	if rec := post(t, router, "/api/auth/register", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register: got %d", rec.Code)
	}

	// Same nick with different case is still a duplicate.
	rec := post(t, router, "/api/auth/register", map[string]string{"nick": "BOB", "password": "hunter22"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: got %d, want 409", rec.Code)
	}
}

func TestRegister_Validation(t *testing.T) {
	router := newRouter(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing nick", map[string]string{"password": "hunter22"}},
		{"short password", map[string]string{"nick": "bob", "password": "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, router, "/api/auth/register", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("got %d, want 400", rec.Code)
			}
		})
	}
}

func TestLogin_WrongCredentials(t *testing.T) {
	router := newRouter(t)

	if rec := post(t, router, "/api/auth/register", map[string]string{
		"nick": "bob", "password": "hunter22",
	}); rec.Code != http.StatusCreated {
		t.Fatal("register failed")
	}

	// Unknown nick and wrong password are indistinguishable.
	for _, body := range []map[string]string{
		{"nick": "bob", "password": "wrong-password"},
		{"nick": "nobody", "password": "hunter22"},
	} {
		rec := post(t, router, "/api/auth/login", body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("login %v: got %d, want 401", body, rec.Code)
		}
	}
}

func TestMe_RequiresToken(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", rec.Code)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	router := newRouter(t)

	// The per-nick window allows five attempts; the sixth is throttled.
	var last int
	for i := 0; i < 6; i++ {
		rec := post(t, router, "/api/auth/login", map[string]string{
			"nick": "victim", "password": "wrong",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth attempt: got %d, want 429", last)
	}
}
