package report

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(repo *MockRepository, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1", func(c *gin.Context) {
		auth.SetIdentity(c, org, 1, role)
		c.Next()
	})
	NewHandler(newTestService(repo)).Register(g, auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_DuesPaginated(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CountMembersWithDues", mock.Anything, org, mock.Anything).Return(45, nil)
	repo.On("MemberDues", mock.Anything, org, mock.Anything).Return([]MemberDues{{MemberID: 7}}, nil)
	repo.On("DueSubscriptions", mock.Anything, org, []int{7}).Return([]DueSubscription{}, nil)

	w := do(setupRouter(repo, auth.RoleStaff), http.MethodGet, "/api/v1/reports/dues?memberId=7&page=2&limit=20", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalPages":3`)
	repo.AssertCalled(t, "MemberDues", mock.Anything, org, mock.MatchedBy(func(f DuesFilter) bool {
		return f.MemberID != nil && *f.MemberID == 7 && f.Page == 2
	}))
}

func TestHandler_FinancialsForbiddenForMembers(t *testing.T) {
	w := do(setupRouter(new(MockRepository), auth.RoleMember), http.MethodGet, "/api/v1/financials/roi", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_TrendsBadMonths(t *testing.T) {
	w := do(setupRouter(new(MockRepository), auth.RoleAdmin), http.MethodGet, "/api/v1/financials/trends?months=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "months must be between 1 and 24")
}

func TestHandler_SummaryBadYear(t *testing.T) {
	w := do(setupRouter(new(MockRepository), auth.RoleAdmin), http.MethodGet, "/api/v1/financials/summary?year=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreateExpense(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateExpense", mock.Anything, mock.Anything).Return(&Expense{ID: 3, Category: "rent", Amount: dec("900")}, nil)

	w := do(setupRouter(repo, auth.RoleAdmin), http.MethodPost, "/api/v1/financials/expenses",
		`{"category":"rent","amount":900,"incurredOn":"2024-03-01"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_CreateExpense_NegativeAmount(t *testing.T) {
	w := do(setupRouter(new(MockRepository), auth.RoleAdmin), http.MethodPost, "/api/v1/financials/expenses",
		`{"category":"rent","amount":-5,"incurredOn":"2024-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "amount must be greater than 0")
}
