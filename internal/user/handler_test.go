package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(repo *MockRepository, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1", func(c *gin.Context) {
		auth.SetIdentity(c, org, 1, role)
		c.Next()
	})
	NewHandler(NewService(repo)).Register(g, auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	return r
}

func perform(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Me(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, org, 1).Return(&User{ID: 1, Role: auth.RoleStaff, FirstName: "Sam"}, nil)

	w := perform(setupRouter(repo, auth.RoleStaff), http.MethodGet, "/api/v1/users/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"firstName":"Sam"`)
}

func TestHandler_CreateMember(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateMember", mock.Anything, org, mock.Anything).Return(member(8), nil)

	w := perform(setupRouter(repo, auth.RoleStaff), http.MethodPost, "/api/v1/members", map[string]string{"firstName": "Ana"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_CreateMember_Validation(t *testing.T) {
	w := perform(setupRouter(new(MockRepository), auth.RoleStaff), http.MethodPost, "/api/v1/members",
		map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestHandler_CreateMember_MemberForbidden(t *testing.T) {
	w := perform(setupRouter(new(MockRepository), auth.RoleMember), http.MethodPost, "/api/v1/members",
		map[string]string{"firstName": "Ana"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_ListMembers_ActiveFilter(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListMembers", mock.Anything, org, mock.MatchedBy(func(f MemberFilter) bool {
		return f.Active != nil && !*f.Active && f.Page == 1 && f.Limit == 20
	})).Return([]User{*member(2)}, 1, nil)

	w := perform(setupRouter(repo, auth.RoleStaff), http.MethodGet, "/api/v1/members?active=false", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1, resp.Pagination.Total)
}

func TestHandler_DeleteMember_Conflict(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindMember", mock.Anything, org, 3).Return(member(3), nil)
	repo.On("HasOpenSubscriptions", mock.Anything, org, 3).Return(true, nil)

	w := perform(setupRouter(repo, auth.RoleAdmin), http.MethodDelete, "/api/v1/members/3", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "cancel them first")
}

func TestHandler_Sync(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(MockRepository)
	repo.On("Upsert", mock.Anything, org, mock.Anything).Return(member(11), nil)

	r := gin.New()
	g := r.Group("/api/v1", func(c *gin.Context) {
		auth.SetClaims(c, claims("ext_11", "ana@example.com", ""))
		auth.SetIdentity(c, org, 0, "")
		c.Next()
	})
	NewHandler(NewService(repo)).RegisterSync(g)

	w := perform(r, http.MethodPost, "/api/v1/users/sync", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertCalled(t, "Upsert", mock.Anything, org, SyncProfile{
		ExternalID: "ext_11", Role: auth.RoleMember, FirstName: "ana", Email: "ana@example.com",
	})
}

func TestHandler_Sync_NoClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(new(MockRepository))).RegisterSync(r.Group("/api/v1"))

	w := perform(r, http.MethodPost, "/api/v1/users/sync", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_MemberRoleCannotReadMembers(t *testing.T) {
	repo := new(MockRepository)
	r := setupRouter(repo, auth.RoleMember)

	for _, path := range []string{"/api/v1/members", "/api/v1/members/3"} {
		w := perform(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
	assert.Empty(t, repo.Calls)
}
