package trainer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(repo *MockRepository, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1/trainers", func(c *gin.Context) {
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

func TestHandler_Create(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Create", mock.Anything, org, CreateRequest{Name: "Rita"}).
		Return(&Trainer{ID: 1, Name: "Rita", IsActive: true, CreatedAt: time.Now()}, nil)

	w := perform(setupRouter(repo, auth.RoleAdmin), http.MethodPost, "/api/v1/trainers", CreateRequest{Name: "Rita"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Rita"`)
}

func TestHandler_Create_MissingName(t *testing.T) {
	w := perform(setupRouter(new(MockRepository), auth.RoleAdmin), http.MethodPost, "/api/v1/trainers", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Deactivate_Busy(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasActiveTrainings", mock.Anything, org, 4).Return(true, nil)

	w := perform(setupRouter(repo, auth.RoleStaff), http.MethodPut, "/api/v1/trainers/4/deactivate", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_List_MemberCanRead(t *testing.T) {
	repo := new(MockRepository)
	repo.On("List", mock.Anything, org, true).Return([]Trainer{{ID: 1, Name: "Rita"}}, nil)

	w := perform(setupRouter(repo, auth.RoleMember), http.MethodGet, "/api/v1/trainers?activeOnly=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}
