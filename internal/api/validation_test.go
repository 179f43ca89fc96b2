package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentBody struct {
	Amount int    `json:"amount" binding:"required,gt=0"`
	Method string `json:"method" binding:"required,oneof=cash card"`
}

func TestBindJSON_ValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/pay", func(c *gin.Context) {
		var body paymentBody
		if !BindJSON(c, &body) {
			return
		}
		OK(c, body)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pay", bytes.NewBufferString(`{"amount":0,"method":"gold"}`)))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Message string            `json:"message"`
		Errors  []ValidationError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Message)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "amount", resp.Errors[0].Field)
	assert.Equal(t, "method must be one of: cash card", resp.Errors[1].Message)
}

func TestBindJSON_Malformed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/pay", func(c *gin.Context) {
		var body paymentBody
		BindJSON(c, &body)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pay", bytes.NewBufferString(`{"amount":`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestValidateStruct(t *testing.T) {
	type step struct {
		MemberID int `validate:"required"`
	}
	errs := ValidateStruct(step{})
	require.Len(t, errs, 1)
	assert.Equal(t, "memberID is required", errs[0].Message)

	assert.Empty(t, ValidateStruct(step{MemberID: 4}))
}

func TestParamIDAndPageParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/items/:id", func(c *gin.Context) {
		id, ok := ParamID(c, "id")
		if !ok {
			return
		}
		page, limit := PageParams(c)
		OK(c, []int{id, page, limit})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/9?page=0&limit=500", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[9,1,100]}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
