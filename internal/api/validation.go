package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs validator tags (`validate:"..."`) on s.
func ValidateStruct(s interface{}) []ValidationError {
	return toValidationErrors(validate.Struct(s))
}

func toValidationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   lowerFirst(fe.Field()),
			Tag:     fe.Tag(),
			Message: errorMessage(fe),
		})
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "lte":
		return field + " must be less than or equal to " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "datetime":
		return field + " must match " + fe.Param()
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// RespondWithValidationErrors sends validation errors in the envelope.
func RespondWithValidationErrors(c *gin.Context, errs []ValidationError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Message: "validation failed",
		Errors:  errs,
	})
}

// BindJSON binds and validates the body. It answers the request itself and
// returns false when the body is unusable.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errs := toValidationErrors(err); len(errs) > 0 {
			RespondWithValidationErrors(c, errs)
			return false
		}
		Abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// ParamID parses a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		Abort(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// PageParams reads page/limit query parameters with sane bounds.
func PageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
