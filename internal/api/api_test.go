package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errVariantMissing = NotFound("plan variant not found")

func perform(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestFail_DomainErrorVerbatim(t *testing.T) {
	w, resp := perform(t, func(c *gin.Context) {
		Fail(c, fmt.Errorf("load variant: %w", errVariantMissing))
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "plan variant not found", resp.Message)
}

func TestFail_UnknownErrorHidden(t *testing.T) {
	w, resp := perform(t, func(c *gin.Context) {
		Fail(c, errors.New("pq: connection refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", resp.Message)
}

func TestPaged(t *testing.T) {
	w, resp := perform(t, func(c *gin.Context) {
		Paged(c, []int{1, 2}, NewPagination(2, 10, 21))
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, 21, resp.Pagination.Total)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusOf(Conflict("x")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("x")))
	assert.True(t, errors.Is(fmt.Errorf("wrap: %w", errVariantMissing), errVariantMissing))
}

func TestNewPagination_ZeroLimit(t *testing.T) {
	assert.Equal(t, 0, NewPagination(1, 0, 5).TotalPages)
}
