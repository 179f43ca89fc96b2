package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator() *Validator {
	return NewValidator("test-secret", "gymdesk-identity", "gymdesk-api")
}

func TestIssueAndValidate(t *testing.T) {
	v := testValidator()

	token, err := v.Issue(Claims{
		Email: "coach@example.com",
		Role:  RoleStaff,
		OrgID: "org_1",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_abc"},
	}, time.Minute)
	require.NoError(t, err)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user_abc", claims.Subject)
	assert.Equal(t, "org_1", claims.OrgID)
	assert.Equal(t, RoleStaff, claims.Role)
}

func TestValidate_Expired(t *testing.T) {
	v := testValidator()

	token, err := v.Issue(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}, -time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewValidator("other", "gymdesk-identity", "gymdesk-api").
		Issue(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}, time.Minute)
	require.NoError(t, err)

	_, err = testValidator().Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongAudience(t *testing.T) {
	token, err := NewValidator("test-secret", "gymdesk-identity", "someone-else").
		Issue(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}, time.Minute)
	require.NoError(t, err)

	_, err = testValidator().Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_MissingSubject(t *testing.T) {
	v := testValidator()
	token, err := v.Issue(Claims{Email: "x@example.com"}, time.Minute)
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEmptySecret(t *testing.T) {
	v := NewValidator("", "i", "a")

	_, err := v.Issue(Claims{}, time.Minute)
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)

	_, err = v.Validate("anything")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}
