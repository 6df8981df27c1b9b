package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	useradapters "user_backend/internal/feature/users/adapters"
	userhandler "user_backend/internal/feature/users/transport/handler"
	"user_backend/internal/feature/users/usecase"
	"user_backend/internal/platform/password"
	"user_backend/internal/platform/security"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupRouter wires the real usecase and GORM store over in-memory SQLite.
func setupRouter(t *testing.T, publicPaths []string) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&useradapters.UserModel{}))

	uc := usecase.NewUserUsecase(useradapters.NewUserRepository(db), password.NewBcryptHasher(bcrypt.MinCost))
	return NewRouter(Deps{
		Users:          userhandler.NewUserHandler(uc),
		Authenticator:  uc,
		Policy:         security.NewPolicy(publicPaths),
		Realm:          "users",
		AllowedOrigins: []string{"*"},
	})
}

func do(r *gin.Engine, method, path, body string, basic ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(basic) == 2 {
		req.SetBasicAuth(basic[0], basic[1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_UserLifecycle(t *testing.T) {
	r := setupRouter(t, []string{"/users/**", "/healthz", "/readyz"})

	w := do(r, http.MethodPost, "/users", `{"username":"john","email":"john@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "USER", created["role"])
	assert.Equal(t, "ACTIVE", created["userStatus"])
	assert.Nil(t, created["lastLogin"])
	assert.NotContains(t, created, "id")
	assert.NotContains(t, created, "passwordHash")
	assert.Equal(t, created["created"], created["updated"])

	w = do(r, http.MethodPost, "/users", `{"username":"john","email":"other@example.com","password":"x"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "username is already taken", w.Body.String())

	w = do(r, http.MethodPost, "/users", `{"username":"jane","email":"john@example.com","password":"x"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email is already in use", w.Body.String())

	w = do(r, http.MethodGet, "/users/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/users/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"user not found with ID: 2"}`, w.Body.String())

	w = do(r, http.MethodPut, "/users/1", `{"username":"johnny","email":"johnny@example.com","role":"ADMIN"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "johnny", updated["username"])
	assert.Equal(t, "ADMIN", updated["role"])
	assert.Equal(t, "ACTIVE", updated["userStatus"])

	w = do(r, http.MethodPut, "/users/1", `{"username":"johnny","email":"johnny@example.com","role":"ROOT"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/users/1/reset-password", `"new_password"`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = do(r, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/users/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Healthz(t *testing.T) {
	r := setupRouter(t, []string{"/healthz"})

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodOptions, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := do(r, tt.method, "/healthz", "")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_OverlongPasswordIsBadRequest(t *testing.T) {
	r := setupRouter(t, []string{"/users/**"})
	long := strings.Repeat("x", 73)

	w := do(r, http.MethodPost, "/users", `{"username":"john","email":"john@example.com","password":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// 25 three-byte runes pass the character limit but exceed 72 bytes.
	multibyte := strings.Repeat("あ", 25)
	w = do(r, http.MethodPost, "/users", `{"username":"john","email":"john@example.com","password":"`+multibyte+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/users", `{"username":"john","email":"john@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/users/1/reset-password", `"`+long+`"`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/users/1/reset-password", `"`+strings.Repeat("x", 72)+`"`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_TightenedPolicyRequiresBasicAuth(t *testing.T) {
	r := setupRouter(t, []string{"/healthz"})

	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/users", `{"username":"john","email":"john@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="users"`, w.Header().Get("WWW-Authenticate"))
}

func TestRouter_BasicAuthAgainstStoredUser(t *testing.T) {
	seeded := setupRouterWithSeed(t)

	w := do(seeded, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(seeded, http.MethodGet, "/users", "", "john", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(seeded, http.MethodGet, "/users", "", "john", "password123")
	assert.Equal(t, http.StatusOK, w.Code)
}

// setupRouterWithSeed protects everything but /healthz and inserts one user directly.
func setupRouterWithSeed(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&useradapters.UserModel{}))

	uc := usecase.NewUserUsecase(useradapters.NewUserRepository(db), password.NewBcryptHasher(bcrypt.MinCost))
	_, err = uc.CreateUser(t.Context(), "john", "john@example.com", "password123")
	require.NoError(t, err)

	return NewRouter(Deps{
		Users:         userhandler.NewUserHandler(uc),
		Authenticator: uc,
		Policy:        security.NewPolicy([]string{"/healthz"}),
		Realm:         "users",
	})
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := setupRouter(t, []string{"/users/**"})

	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig(t *testing.T) {
	all := corsConfig([]string{"*"})
	assert.True(t, all.AllowAllOrigins)
	assert.Empty(t, all.AllowOrigins)

	listed := corsConfig([]string{"https://a.example.com"})
	assert.False(t, listed.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example.com"}, listed.AllowOrigins)
}
